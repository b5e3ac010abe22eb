package model

import "time"

type DayPlan struct {
	ID        string    `db:"id"         json:"id"`
	EventID   string    `db:"event_id"   json:"event_id"`
	Name      string    `db:"name"       json:"name"`
	Date      string    `db:"date"       json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleItem is one row of a day plan, ordered by Position.
type ScheduleItem struct {
	ID        int       `db:"id"          json:"id"`
	DayPlanID string    `db:"day_plan_id" json:"day_plan_id"`
	Time      string    `db:"time"        json:"time"`
	Type      string    `db:"type"        json:"type"`
	Title     string    `db:"title"       json:"title"`
	Speaker   *string   `db:"speaker"     json:"speaker"`
	Location  *string   `db:"location"    json:"location"`
	Details   *string   `db:"details"     json:"details"`
	Position  int       `db:"position"    json:"position"`
	CreatedAt time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt time.Time `db:"updated_at"  json:"updated_at"`
}

// DayPlanWithItems is a day plan resolved together with its ordered schedule,
// the shape displays and shared-plan views consume.
type DayPlanWithItems struct {
	DayPlan
	ScheduleItems []ScheduleItem `json:"schedule_items"`
}
