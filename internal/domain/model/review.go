package model

import "time"

type Review struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Text       string    `db:"text" json:"text"`
	Rating     int       `db:"rating" json:"rating"`
	BootcampID string    `db:"bootcamp_id" json:"bootcampId"`
	UserID     string    `db:"user_id" json:"userId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`

	Bootcamp *BootcampSummary `db:"-" json:"bootcamp,omitempty"`
}
