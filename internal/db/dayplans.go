package db

import (
	"github.com/google/uuid"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

const scheduleItemColumns = `id, day_plan_id, "time", type, title, speaker, location, details, position, created_at, updated_at`

func (s *pgStore) CreateDayPlan(eventID, name, date string) (model.DayPlan, error) {
	var p model.DayPlan
	err := s.db.Get(&p, `
		INSERT INTO day_plans (id, event_id, name, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, event_id, name, date, created_at, updated_at
		`, uuid.NewString(), eventID, name, date)
	return p, err
}

func (s *pgStore) GetDayPlanByID(id string) (*model.DayPlan, error) {
	var p model.DayPlan
	err := s.db.Get(&p, `
		SELECT id, event_id, name, date, created_at, updated_at
		FROM day_plans
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *pgStore) ListDayPlans(eventID string) ([]model.DayPlan, error) {
	plans := []model.DayPlan{}
	err := s.db.Select(&plans, `
		SELECT id, event_id, name, date, created_at, updated_at
		FROM day_plans
		WHERE event_id = $1
		ORDER BY date
		`, eventID)
	return plans, err
}

func (s *pgStore) DeleteDayPlan(id string) error {
	_, err := s.db.Exec(`DELETE FROM day_plans WHERE id = $1`, id)
	return err
}

func (s *pgStore) ListScheduleItems(dayPlanID string) ([]model.ScheduleItem, error) {
	items := []model.ScheduleItem{}
	err := s.db.Select(&items, `
		SELECT `+scheduleItemColumns+`
		FROM schedule_items
		WHERE day_plan_id = $1
		ORDER BY position
		`, dayPlanID)
	return items, err
}

// ReplaceScheduleItems swaps the full schedule of a day plan in one
// transaction; positions are renumbered from the slice order.
func (s *pgStore) ReplaceScheduleItems(dayPlanID string, items []model.ScheduleItem) ([]model.ScheduleItem, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM schedule_items WHERE day_plan_id = $1`, dayPlanID); err != nil {
		return nil, err
	}

	for i, item := range items {
		if _, err := tx.Exec(`
			INSERT INTO schedule_items (day_plan_id, "time", type, title, speaker, location, details, position, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			`, dayPlanID, item.Time, item.Type, item.Title, item.Speaker, item.Location, item.Details, i); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(`UPDATE day_plans SET updated_at = now() WHERE id = $1`, dayPlanID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.ListScheduleItems(dayPlanID)
}
