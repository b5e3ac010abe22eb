// exposes a Store interface that is passed to API modules
package db

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

type Store interface {
	// user functions
	CreateUser(organisationID, username string, email *string, passwordHash, role string) (model.User, error)
	GetUserByID(id string) (*model.User, error)
	GetUserByLogin(organisationID, usernameOrEmail string) (*model.User, error)
	ListOrganisationUsers(organisationID string) ([]model.User, error)
	UpdateUserPassword(id, passwordHash string) error
	MarkEmailVerified(id string) error
	DeleteUser(id string) error

	// organisation functions
	CreateOrganisation(name string, description *string) (model.Organisation, error)
	GetOrganisationByID(id string) (*model.Organisation, error)
	ListOrganisations() ([]model.Organisation, error)
	UpdateOrganisation(id string, name, description, logoURL *string) (model.Organisation, error)
	DeleteOrganisation(id string) error

	// invitation functions
	CreateInvitation(organisationID, email, role, token, invitedBy string, expiresAt time.Time) (model.Invitation, error)
	GetInvitationByToken(token string) (*model.Invitation, error)
	ListInvitations(organisationID string) ([]model.Invitation, error)
	DeleteInvitation(id string) error
	DeleteInvitationByEmail(organisationID, email string) error

	// event functions
	CreateEvent(organisationID, name string, description *string) (model.Event, error)
	GetEventByID(id string) (*model.Event, error)
	ListEvents(organisationID string) ([]model.Event, error)
	DeleteEvent(id string) error

	// day plan functions
	CreateDayPlan(eventID, name, date string) (model.DayPlan, error)
	GetDayPlanByID(id string) (*model.DayPlan, error)
	ListDayPlans(eventID string) ([]model.DayPlan, error)
	DeleteDayPlan(id string) error
	ListScheduleItems(dayPlanID string) ([]model.ScheduleItem, error)
	ReplaceScheduleItems(dayPlanID string, items []model.ScheduleItem) ([]model.ScheduleItem, error)

	// display functions
	CreateDisplay(pairingCode, name string) (model.Display, error)
	GetDisplayByID(id string) (*model.Display, error)
	GetDisplayByPairingCode(code string) (*model.Display, error)
	ListOrganisationDisplays(organisationID string) ([]model.Display, error)
	ListDisplaysWithOrganisation() ([]model.Display, error)
	PairDisplay(id, organisationID, name string) (model.Display, error)
	ResetDisplayPairing(id string) (model.Display, error)
	SetDisplayDayPlan(id string, dayPlanID *string) (model.Display, error)
	DeleteDisplay(id string) error

	// shared plan functions
	CreateSharedPlan(dayPlanID, shareToken, title string, description *string, expiresAt *time.Time, createdBy string) (model.SharedPlan, error)
	GetSharedPlanByID(id string) (*model.SharedPlan, error)
	GetSharedPlanByToken(token string) (*model.SharedPlan, error)
	ListDayPlanShares(dayPlanID string) ([]model.SharedPlan, error)
	ListOrganisationShares(organisationID string) ([]model.SharedPlan, error)
	UpdateSharedPlan(id string, title, description *string, isActive *bool, expiresAt *time.Time, clearExpiry bool) (model.SharedPlan, error)
	RecordSharedPlanView(id string) error
	DeleteSharedPlan(id string) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}
