package endpoints

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu2a-dev/dayplaner/internal/http/api"
	"github.com/lu2a-dev/dayplaner/internal/model"
	"github.com/lu2a-dev/dayplaner/internal/pairing"
)

// memStore is a minimal in-memory pairing.Store for protocol-level tests.
type memStore struct {
	mu            sync.Mutex
	displays      map[string]model.Display
	organisations map[string]model.Organisation
	events        map[string]model.Event
	dayPlans      map[string]model.DayPlan
	items         map[string][]model.ScheduleItem
	nextID        int
}

func newMemStore() *memStore {
	return &memStore{
		displays:      make(map[string]model.Display),
		organisations: make(map[string]model.Organisation),
		events:        make(map[string]model.Event),
		dayPlans:      make(map[string]model.DayPlan),
		items:         make(map[string][]model.ScheduleItem),
	}
}

func (m *memStore) CreateDisplay(pairingCode, name string) (model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	d := model.Display{
		ID:          fmt.Sprintf("display-%d", m.nextID),
		PairingCode: pairingCode,
		Status:      model.DisplayStatusPending,
		Name:        name,
	}
	m.displays[d.ID] = d
	return d, nil
}

func (m *memStore) GetDisplayByID(id string) (*model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.displays[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (m *memStore) GetDisplayByPairingCode(code string) (*model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.displays {
		if d.PairingCode == code {
			copied := d
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ListOrganisationDisplays(organisationID string) ([]model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Display
	for _, d := range m.displays {
		if d.OrganisationID != nil && *d.OrganisationID == organisationID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) ListDisplaysWithOrganisation() ([]model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Display
	for _, d := range m.displays {
		if d.OrganisationID != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) PairDisplay(id, organisationID, name string) (model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.displays[id]
	d.Status = model.DisplayStatusPaired
	d.OrganisationID = &organisationID
	d.Name = name
	d.IsActive = true
	m.displays[id] = d
	return d, nil
}

func (m *memStore) ResetDisplayPairing(id string) (model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.displays[id]
	if !ok {
		return model.Display{}, sql.ErrNoRows
	}
	d.Status = model.DisplayStatusPending
	d.OrganisationID = nil
	d.CurrentDayPlanID = nil
	d.IsActive = false
	m.displays[id] = d
	return d, nil
}

func (m *memStore) SetDisplayDayPlan(id string, dayPlanID *string) (model.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.displays[id]
	if !ok {
		return model.Display{}, sql.ErrNoRows
	}
	d.CurrentDayPlanID = dayPlanID
	m.displays[id] = d
	return d, nil
}

func (m *memStore) DeleteDisplay(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.displays, id)
	return nil
}

func (m *memStore) GetOrganisationByID(id string) (*model.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.organisations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

func (m *memStore) GetDayPlanByID(id string) (*model.DayPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.dayPlans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *memStore) GetEventByID(id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (m *memStore) ListScheduleItems(dayPlanID string) ([]model.ScheduleItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[dayPlanID], nil
}

func (m *memStore) seedOrganisation(id string) {
	m.organisations[id] = model.Organisation{ID: id, Name: "Org " + id}
}

func (m *memStore) seedDayPlan(id, orgID string) {
	eventID := "event-" + id
	m.events[eventID] = model.Event{ID: eventID, OrganisationID: orgID}
	m.dayPlans[id] = model.DayPlan{ID: id, EventID: eventID, Name: "Plan", Date: "2026-09-01"}
	m.items[id] = []model.ScheduleItem{{DayPlanID: id, Time: "09:00", Type: "talk", Title: "Opening"}}
}

func newTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api"}, PairingModule(pairing.NewService(store, nil)))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestInitEndpoint(t *testing.T) {
	r := newTestRouter(newMemStore())

	w, body := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["code"], 6)
	assert.NotEmpty(t, body["deviceId"])
}

func TestStatusUnknownDevice(t *testing.T) {
	r := newTestRouter(newMemStore())

	w, body := do(t, r, http.MethodGet, "/api/displays/pairing/status/nope", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Display not found", body["error"])
}

func TestRegisterFlow(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	code := initBody["code"].(string)
	deviceID := initBody["deviceId"].(string)

	w, body := do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    code,
		"organisationId": "org-1",
		"deviceName":     "Foyer",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	display := body["display"].(map[string]any)
	assert.Equal(t, model.DisplayStatusPaired, display["status"])
	assert.Equal(t, "Foyer", display["name"])

	w, status := do(t, r, http.MethodGet, "/api/displays/pairing/status/"+deviceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, status["isPaired"])
	assert.Equal(t, "org-1", status["organisationId"])
}

func TestRegisterValidation(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	// missing fields
	w, _ := do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown organisation wins over an unknown code
	w, body := do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    "000000",
		"organisationId": "ghost",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Organisation not found", body["error"])

	// known organisation, unknown code
	w, body = do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    "000000",
		"organisationId": "org-1",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Display not found", body["error"])
}

func TestRegisterTwice(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	code := initBody["code"].(string)

	register := gin.H{"pairingCode": code, "organisationId": "org-1"}
	w, _ := do(t, r, http.MethodPost, "/api/displays/pairing/register", register)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, r, http.MethodPost, "/api/displays/pairing/register", register)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Display is already paired", body["error"])
}

func TestAssignDayPlanEndpoint(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	store.seedDayPlan("plan-1", "org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	deviceID := initBody["deviceId"].(string)
	do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    initBody["code"],
		"organisationId": "org-1",
	})

	w, body := do(t, r, http.MethodPut, "/api/displays/pairing/"+deviceID+"/dayplan", gin.H{
		"dayPlanId": "plan-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	dayPlan := body["dayPlan"].(map[string]any)
	assert.Equal(t, "plan-1", dayPlan["id"])

	_, status := do(t, r, http.MethodGet, "/api/displays/pairing/status/"+deviceID, nil)
	require.NotNil(t, status["dayPlan"])
	assigned := status["dayPlan"].(map[string]any)
	items := assigned["schedule_items"].([]any)
	assert.Len(t, items, 1)
}

func TestAssignDayPlanCrossOrganisation(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	store.seedOrganisation("org-2")
	store.seedDayPlan("plan-other", "org-2")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	deviceID := initBody["deviceId"].(string)
	do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    initBody["code"],
		"organisationId": "org-1",
	})

	w, _ := do(t, r, http.MethodPut, "/api/displays/pairing/"+deviceID+"/dayplan", gin.H{
		"dayPlanId": "plan-other",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDisconnectEndpoint(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	deviceID := initBody["deviceId"].(string)
	do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    initBody["code"],
		"organisationId": "org-1",
	})

	w, body := do(t, r, http.MethodPost, "/api/displays/pairing/"+deviceID+"/disconnect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	display := body["display"].(map[string]any)
	assert.Equal(t, model.DisplayStatusPending, display["status"])

	// the identity survives a disconnect
	w, _ = do(t, r, http.MethodGet, "/api/displays/pairing/status/"+deviceID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResetEndpoint(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	deviceID := initBody["deviceId"].(string)

	w, body := do(t, r, http.MethodPost, "/api/displays/pairing/"+deviceID+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, deviceID, body["deviceId"])
	assert.Len(t, body["code"], 6)

	// the old identity is gone, a polling client gets 404 and must re-pair
	w, _ = do(t, r, http.MethodGet, "/api/displays/pairing/status/"+deviceID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusAfterOrganisationDeleted(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	deviceID := initBody["deviceId"].(string)
	do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    initBody["code"],
		"organisationId": "org-1",
	})

	delete(store.organisations, "org-1")

	w, status := do(t, r, http.MethodGet, "/api/displays/pairing/status/"+deviceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, status["wasReset"])
	assert.Equal(t, "Organisation no longer exists", status["resetReason"])
	assert.Equal(t, model.DisplayStatusPending, status["status"])
}

func TestCleanupEndpoint(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    initBody["code"],
		"organisationId": "org-1",
	})

	// nothing orphaned yet
	w, body := do(t, r, http.MethodPost, "/api/displays/pairing/cleanup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["cleaned"])

	delete(store.organisations, "org-1")

	w, body = do(t, r, http.MethodPost, "/api/displays/pairing/cleanup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["cleaned"])
	details := body["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, true, details[0].(map[string]any)["success"])
}

func TestListOrganisationDisplays(t *testing.T) {
	store := newMemStore()
	store.seedOrganisation("org-1")
	r := newTestRouter(store)

	_, initBody := do(t, r, http.MethodPost, "/api/displays/pairing/init", nil)
	do(t, r, http.MethodPost, "/api/displays/pairing/register", gin.H{
		"pairingCode":    initBody["code"],
		"organisationId": "org-1",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/displays/pairing/org-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var displays []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &displays))
	require.Len(t, displays, 1)
	assert.Equal(t, model.DisplayStatusPaired, displays[0]["status"])
}
