// Package pairing implements the display pairing state machine: displays
// self-register in PENDING, an operator binds them to an organisation by
// pairing code, and devices observe the binding (and their assigned day plan)
// by polling. Dangling organisation references are repaired lazily.
package pairing

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

var (
	ErrOrganisationNotFound = errors.New("organisation not found")
	ErrDisplayNotFound      = errors.New("display not found")
	ErrDayPlanNotFound      = errors.New("day plan not found")
	ErrAlreadyPaired        = errors.New("display is already paired")
	ErrNotPaired            = errors.New("display must be paired with an organisation first")
	ErrOrganisationGone     = errors.New("display organisation no longer exists")
	ErrWrongOrganisation    = errors.New("day plan must belong to the same organisation as the display")
)

// Store is the slice of the data layer the pairing service needs.
// db.Store satisfies it.
type Store interface {
	CreateDisplay(pairingCode, name string) (model.Display, error)
	GetDisplayByID(id string) (*model.Display, error)
	GetDisplayByPairingCode(code string) (*model.Display, error)
	ListOrganisationDisplays(organisationID string) ([]model.Display, error)
	ListDisplaysWithOrganisation() ([]model.Display, error)
	PairDisplay(id, organisationID, name string) (model.Display, error)
	ResetDisplayPairing(id string) (model.Display, error)
	SetDisplayDayPlan(id string, dayPlanID *string) (model.Display, error)
	DeleteDisplay(id string) error

	GetOrganisationByID(id string) (*model.Organisation, error)
	GetDayPlanByID(id string) (*model.DayPlan, error)
	GetEventByID(id string) (*model.Event, error)
	ListScheduleItems(dayPlanID string) ([]model.ScheduleItem, error)
}

// Notifier is poked after operator actions a polling device would otherwise
// only notice on its next interval. Implementations must be best-effort.
type Notifier interface {
	NotifyDisplay(deviceID string)
}

type Service struct {
	store    Store
	notifier Notifier
}

// NewService builds a pairing service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Status is the payload a device receives when polling its state.
type Status struct {
	Status         string                  `json:"status"`
	IsPaired       bool                    `json:"isPaired"`
	OrganisationID *string                 `json:"organisationId"`
	DeviceName     string                  `json:"deviceName"`
	DayPlan        *model.DayPlanWithItems `json:"dayPlan"`
	WasReset       bool                    `json:"wasReset,omitempty"`
	ResetReason    string                  `json:"resetReason,omitempty"`
}

// Init creates a fresh display in PENDING with a unique pairing code. The
// default name embeds the code so an operator can tell devices apart.
func (s *Service) Init() (model.Display, error) {
	code, err := s.uniquePairingCode()
	if err != nil {
		return model.Display{}, err
	}

	display, err := s.store.CreateDisplay(code, "Display "+code)
	if err != nil {
		return model.Display{}, fmt.Errorf("create display: %w", err)
	}

	log.Info().Str("display_id", display.ID).Str("code", code).Msg("display created with pairing code")
	return display, nil
}

// Register binds a PENDING display to an organisation by pairing code. The
// organisation is checked before the code so an operator typing both wrong
// hears about the organisation first. Re-registering a paired display always
// fails; an explicit reset is required.
func (s *Service) Register(pairingCode, organisationID string, deviceName *string) (model.Display, error) {
	if _, err := s.store.GetOrganisationByID(organisationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("organisation_id", organisationID).Msg("display registration failed: organisation not found")
			return model.Display{}, ErrOrganisationNotFound
		}
		return model.Display{}, err
	}

	display, err := s.store.GetDisplayByPairingCode(pairingCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("code", pairingCode).Msg("display registration failed: invalid pairing code")
			return model.Display{}, ErrDisplayNotFound
		}
		return model.Display{}, err
	}

	if display.Status == model.DisplayStatusPaired {
		log.Warn().Str("code", pairingCode).Msg("display registration failed: already paired")
		return model.Display{}, ErrAlreadyPaired
	}

	name := display.Name
	if deviceName != nil && *deviceName != "" {
		name = *deviceName
	}

	paired, err := s.store.PairDisplay(display.ID, organisationID, name)
	if err != nil {
		return model.Display{}, fmt.Errorf("pair display: %w", err)
	}

	log.Info().Str("display_id", paired.ID).Str("organisation_id", organisationID).Msg("display paired")
	s.notify(paired.ID)
	return paired, nil
}

// GetStatus is the synchronization point devices poll. It repairs a dangling
// organisation reference in place (flagging the response) and clears a
// deleted day plan assignment without touching the pairing.
func (s *Service) GetStatus(deviceID string) (Status, error) {
	display, err := s.store.GetDisplayByID(deviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Status{}, ErrDisplayNotFound
		}
		return Status{}, err
	}

	repaired, wasReset, err := s.repairIfDangling(display)
	if err != nil {
		return Status{}, err
	}
	if wasReset {
		return Status{
			Status:      repaired.Status,
			DeviceName:  repaired.Name,
			WasReset:    true,
			ResetReason: "Organisation no longer exists",
		}, nil
	}
	display = repaired

	var dayPlan *model.DayPlanWithItems
	if display.CurrentDayPlanID != nil {
		dayPlan, err = s.resolveDayPlan(*display.CurrentDayPlanID)
		if err != nil {
			return Status{}, err
		}
		if dayPlan == nil {
			log.Warn().Str("display_id", deviceID).Str("day_plan_id", *display.CurrentDayPlanID).
				Msg("assigned day plan no longer exists, clearing assignment")
			if _, err := s.store.SetDisplayDayPlan(deviceID, nil); err != nil {
				return Status{}, err
			}
		}
	}

	return Status{
		Status:         display.Status,
		IsPaired:       display.Status == model.DisplayStatusPaired,
		OrganisationID: display.OrganisationID,
		DeviceName:     display.Name,
		DayPlan:        dayPlan,
	}, nil
}

// AssignDayPlan pushes a schedule to a paired display. The device observes the
// assignment on its next poll.
func (s *Service) AssignDayPlan(displayID, dayPlanID string) (model.Display, *model.DayPlanWithItems, error) {
	display, err := s.store.GetDisplayByID(displayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Display{}, nil, ErrDisplayNotFound
		}
		return model.Display{}, nil, err
	}

	if display.OrganisationID == nil {
		return model.Display{}, nil, ErrNotPaired
	}

	repaired, wasReset, err := s.repairIfDangling(display)
	if err != nil {
		return model.Display{}, nil, err
	}
	if wasReset {
		return model.Display{}, nil, ErrOrganisationGone
	}
	display = repaired

	dayPlan, err := s.store.GetDayPlanByID(dayPlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Display{}, nil, ErrDayPlanNotFound
		}
		return model.Display{}, nil, err
	}

	event, err := s.store.GetEventByID(dayPlan.EventID)
	if err != nil {
		return model.Display{}, nil, fmt.Errorf("load owning event: %w", err)
	}
	if event.OrganisationID != *display.OrganisationID {
		log.Error().Str("display_id", displayID).Str("day_plan_id", dayPlanID).
			Msg("day plan belongs to a different organisation than display")
		return model.Display{}, nil, ErrWrongOrganisation
	}

	updated, err := s.store.SetDisplayDayPlan(displayID, &dayPlanID)
	if err != nil {
		return model.Display{}, nil, fmt.Errorf("assign day plan: %w", err)
	}

	items, err := s.store.ListScheduleItems(dayPlanID)
	if err != nil {
		return model.Display{}, nil, err
	}

	log.Info().Str("display_id", displayID).Str("day_plan_id", dayPlanID).Msg("day plan assigned to display")
	s.notify(displayID)
	return updated, &model.DayPlanWithItems{DayPlan: *dayPlan, ScheduleItems: items}, nil
}

// Disconnect deactivates a display and clears its pairing, returning it to
// PENDING under its existing id and code.
func (s *Service) Disconnect(displayID string) (model.Display, error) {
	if _, err := s.store.GetDisplayByID(displayID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Display{}, ErrDisplayNotFound
		}
		return model.Display{}, err
	}

	display, err := s.store.ResetDisplayPairing(displayID)
	if err != nil {
		return model.Display{}, fmt.Errorf("disconnect display: %w", err)
	}

	log.Info().Str("display_id", displayID).Msg("display disconnected")
	return display, nil
}

// Reset performs a hard reset: the display row is deleted and recreated under
// a new id and pairing code. Any client still polling the old id receives
// not-found and must re-pair from scratch.
func (s *Service) Reset(displayID string) (model.Display, error) {
	if _, err := s.store.GetDisplayByID(displayID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Display{}, ErrDisplayNotFound
		}
		return model.Display{}, err
	}

	if err := s.store.DeleteDisplay(displayID); err != nil {
		return model.Display{}, fmt.Errorf("delete display: %w", err)
	}

	replacement, err := s.Init()
	if err != nil {
		return model.Display{}, err
	}

	log.Info().Str("old_display_id", displayID).Str("new_display_id", replacement.ID).Msg("display reset")
	return replacement, nil
}

// ListForOrganisation returns all displays bound to an organisation.
func (s *Service) ListForOrganisation(organisationID string) ([]model.Display, error) {
	return s.store.ListOrganisationDisplays(organisationID)
}

// CleanupResult reports one orphaned display handled by CleanupOrphans.
type CleanupResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CleanupOrphans is the proactive counterpart to the repair performed on
// every status poll: it sweeps all displays that reference an organisation
// and funnels each through the same repairIfDangling the status path uses.
// Candidates are processed concurrently and independently; one failed reset
// does not stop the rest.
func (s *Service) CleanupOrphans() (int, []CleanupResult, error) {
	displays, err := s.store.ListDisplaysWithOrganisation()
	if err != nil {
		return 0, nil, err
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []CleanupResult
	)

	for _, display := range displays {
		wg.Add(1)
		go func(d model.Display) {
			defer wg.Done()

			_, wasReset, err := s.repairIfDangling(&d)
			if err != nil {
				log.Error().Err(err).Str("display_id", d.ID).Msg("failed to clean up orphaned display")
				mu.Lock()
				results = append(results, CleanupResult{ID: d.ID, Success: false, Error: err.Error()})
				mu.Unlock()
				return
			}
			if !wasReset {
				return
			}

			log.Info().Str("display_id", d.ID).Str("organisation_id", *d.OrganisationID).
				Msg("cleaned up orphaned display")
			mu.Lock()
			results = append(results, CleanupResult{ID: d.ID, Success: true})
			mu.Unlock()
		}(display)
	}
	wg.Wait()

	cleaned := 0
	for _, r := range results {
		if r.Success {
			cleaned++
		}
	}
	return cleaned, results, nil
}

// repairIfDangling resets a paired display whose organisation has been
// deleted. Both the interactive status path and the batch sweep converge on
// the same reset, so a repaired display stays PENDING on subsequent calls.
func (s *Service) repairIfDangling(display *model.Display) (*model.Display, bool, error) {
	if display.OrganisationID == nil || display.Status != model.DisplayStatusPaired {
		return display, false, nil
	}

	_, err := s.store.GetOrganisationByID(*display.OrganisationID)
	if err == nil {
		return display, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	log.Warn().Str("display_id", display.ID).Str("organisation_id", *display.OrganisationID).
		Msg("organisation for display no longer exists, resetting display")

	reset, err := s.store.ResetDisplayPairing(display.ID)
	if err != nil {
		return nil, false, fmt.Errorf("reset orphaned display: %w", err)
	}
	return &reset, true, nil
}

func (s *Service) resolveDayPlan(dayPlanID string) (*model.DayPlanWithItems, error) {
	dayPlan, err := s.store.GetDayPlanByID(dayPlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items, err := s.store.ListScheduleItems(dayPlanID)
	if err != nil {
		return nil, err
	}
	return &model.DayPlanWithItems{DayPlan: *dayPlan, ScheduleItems: items}, nil
}

func (s *Service) notify(deviceID string) {
	if s.notifier != nil {
		s.notifier.NotifyDisplay(deviceID)
	}
}
