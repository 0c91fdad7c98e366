package model

import "time"

const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

type Course struct {
	ID                   string    `db:"id" json:"id"`
	Title                string    `db:"title" json:"title"`
	Description          string    `db:"description" json:"description"`
	Weeks                string    `db:"weeks" json:"weeks"`
	Tuition              float64   `db:"tuition" json:"tuition"`
	MinimumSkill         string    `db:"minimum_skill" json:"minimumSkill"`
	ScholarshipAvailable bool      `db:"scholarship_available" json:"scholarshipAvailable"`
	BootcampID           string    `db:"bootcamp_id" json:"bootcampId"`
	UserID               string    `db:"user_id" json:"userId"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`

	Bootcamp *BootcampSummary `db:"-" json:"bootcamp,omitempty"`
}
