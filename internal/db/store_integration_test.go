package db

import (
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

var initOnce sync.Once

// requireTestDB connects once per package run and skips when no test database
// is configured, so the suite stays runnable without infrastructure.
func requireTestDB(t *testing.T) Store {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	initOnce.Do(func() {
		if err := InitTestDB("../../migrations"); err != nil {
			panic("test db init: " + err.Error())
		}
	})
	return TestStore
}

func seedOrganisation(t *testing.T, store Store) model.Organisation {
	t.Helper()
	org, err := store.CreateOrganisation("Test Org "+time.Now().Format("150405.000000000"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteOrganisation(org.ID) })
	return org
}

func TestUserLifecycle(t *testing.T) {
	store := requireTestDB(t)
	org := seedOrganisation(t, store)

	email := "alex@example.com"
	user, err := store.CreateUser(org.ID, "alex", &email, "hash", model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)

	// login matches either the username or the email
	byUsername, err := store.GetUserByLogin(org.ID, "alex")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	byEmail, err := store.GetUserByLogin(org.ID, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	// but never across organisations
	other := seedOrganisation(t, store)
	_, err = store.GetUserByLogin(other.ID, "alex")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.MarkEmailVerified(user.ID))
	reloaded, err := store.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.EmailVerified)

	require.NoError(t, store.DeleteUser(user.ID))
	_, err = store.GetUserByID(user.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDisplayLifecycle(t *testing.T) {
	store := requireTestDB(t)
	org := seedOrganisation(t, store)

	display, err := store.CreateDisplay("934857", "Display 934857")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteDisplay(display.ID) })

	assert.Equal(t, model.DisplayStatusPending, display.Status)
	assert.Nil(t, display.OrganisationID)

	byCode, err := store.GetDisplayByPairingCode("934857")
	require.NoError(t, err)
	assert.Equal(t, display.ID, byCode.ID)

	paired, err := store.PairDisplay(display.ID, org.ID, "Lobby")
	require.NoError(t, err)
	assert.Equal(t, model.DisplayStatusPaired, paired.Status)
	assert.True(t, paired.IsActive)

	listed, err := store.ListOrganisationDisplays(org.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	reset, err := store.ResetDisplayPairing(display.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DisplayStatusPending, reset.Status)
	assert.Nil(t, reset.OrganisationID)
	assert.Nil(t, reset.CurrentDayPlanID)
	assert.False(t, reset.IsActive)
}

func TestScheduleItemsReplace(t *testing.T) {
	store := requireTestDB(t)
	org := seedOrganisation(t, store)

	event, err := store.CreateEvent(org.ID, "Conference", nil)
	require.NoError(t, err)
	plan, err := store.CreateDayPlan(event.ID, "Day 1", "2026-09-01")
	require.NoError(t, err)

	items, err := store.ReplaceScheduleItems(plan.ID, []model.ScheduleItem{
		{Time: "09:00", Type: "talk", Title: "Opening"},
		{Time: "10:30", Type: "break", Title: "Coffee"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, 1, items[1].Position)

	// a second replace discards the previous schedule entirely
	items, err = store.ReplaceScheduleItems(plan.ID, []model.ScheduleItem{
		{Time: "13:00", Type: "talk", Title: "Keynote"},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Keynote", items[0].Title)

	stored, err := store.ListScheduleItems(plan.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSharedPlanViews(t *testing.T) {
	store := requireTestDB(t)
	org := seedOrganisation(t, store)

	admin, err := store.CreateUser(org.ID, "sharer", nil, "hash", model.RoleAdmin)
	require.NoError(t, err)
	event, err := store.CreateEvent(org.ID, "Conference", nil)
	require.NoError(t, err)
	plan, err := store.CreateDayPlan(event.ID, "Day 1", "2026-09-01")
	require.NoError(t, err)

	shared, err := store.CreateSharedPlan(plan.ID, "deadbeefdeadbeefdeadbeefdeadbeef", "Day 1", nil, nil, admin.ID)
	require.NoError(t, err)
	assert.True(t, shared.IsActive)
	assert.Zero(t, shared.ViewCount)

	require.NoError(t, store.RecordSharedPlanView(shared.ID))
	require.NoError(t, store.RecordSharedPlanView(shared.ID))

	reloaded, err := store.GetSharedPlanByToken(shared.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.ViewCount)
	assert.NotNil(t, reloaded.LastViewAt)

	inactive := false
	updated, err := store.UpdateSharedPlan(shared.ID, nil, nil, &inactive, nil, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Day 1", updated.Title, "untouched fields survive a partial update")
}
