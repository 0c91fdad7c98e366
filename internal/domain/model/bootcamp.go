package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const DefaultPhoto = "no-photo.jpg"

var Careers = []string{
	"Web Development",
	"Mobile Development",
	"UI/UX",
	"Data Science",
	"Business",
	"Other",
}

// Location is the geocoded form of a bootcamp address.
type Location struct {
	Latitude         *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64 `db:"longitude" json:"longitude,omitempty"`
	FormattedAddress *string  `db:"formatted_address" json:"formattedAddress,omitempty"`
	Street           *string  `db:"street" json:"street,omitempty"`
	City             *string  `db:"city" json:"city,omitempty"`
	State            *string  `db:"state" json:"state,omitempty"`
	Zipcode          *string  `db:"zipcode" json:"zipcode,omitempty"`
	Country          *string  `db:"country" json:"country,omitempty"`
}

type Bootcamp struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"userId"`
	Name          string     `db:"name" json:"name"`
	Slug          string     `db:"slug" json:"slug"`
	Description   string     `db:"description" json:"description"`
	Website       string     `db:"website" json:"website,omitempty"`
	Phone         string     `db:"phone" json:"phone,omitempty"`
	Email         string     `db:"email" json:"email,omitempty"`
	Address       string     `db:"address" json:"address,omitempty"`
	Careers       StringList `db:"careers" json:"careers"`
	AverageRating *float64   `db:"average_rating" json:"averageRating,omitempty"`
	AverageCost   *float64   `db:"average_cost" json:"averageCost,omitempty"`
	Photo         string     `db:"photo" json:"photo"`
	Housing       bool       `db:"housing" json:"housing"`
	JobAssistance bool       `db:"job_assistance" json:"jobAssistance"`
	JobGuarantee  bool       `db:"job_guarantee" json:"jobGuarantee"`
	AcceptGi      bool       `db:"accept_gi" json:"acceptGi"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`

	Location `json:"location"`

	Courses []Course `db:"-" json:"courses,omitempty"` // populated on list
}

// BootcampSummary is the projection attached to populated courses and
// reviews.
type BootcampSummary struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// StringList is stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList: cannot scan %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(l))
}
