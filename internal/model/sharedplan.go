package model

import "time"

type SharedPlan struct {
	ID          string     `db:"id"           json:"id"`
	DayPlanID   string     `db:"day_plan_id"  json:"day_plan_id"`
	ShareToken  string     `db:"share_token"  json:"share_token"`
	Title       string     `db:"title"        json:"title"`
	Description *string    `db:"description"  json:"description"`
	IsActive    bool       `db:"is_active"    json:"is_active"`
	ExpiresAt   *time.Time `db:"expires_at"   json:"expires_at"`
	ViewCount   int        `db:"view_count"   json:"view_count"`
	LastViewAt  *time.Time `db:"last_view_at" json:"last_view_at"`
	CreatedBy   string     `db:"created_by"   json:"created_by"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
}
