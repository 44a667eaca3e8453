package contracts

import (
	"math"
	"time"
)

// Student is a roster entry. Identity fields never change after import;
// physical attributes are updated periodically.
type Student struct {
	ID       int64  `json:"studentId" validate:"gt=0"`
	Name     string `json:"studentName" validate:"required"`
	Grade    int    `json:"grade" validate:"gte=1,lte=12"`
	ClassNum int    `json:"classNum" validate:"gte=1"`
	Number   int    `json:"number" validate:"gte=1"`
	Gender   string `json:"gender" validate:"omitempty,max=10"`

	Height     *float64   `json:"height,omitempty" validate:"omitempty,gt=0,lt=250"` // cm
	Weight     *float64   `json:"weight,omitempty" validate:"omitempty,gt=0,lt=300"` // kg
	MeasuredOn *time.Time `json:"measuredOn,omitempty"`

	EnrolledOn  *time.Time `json:"enrolledOn,omitempty"`
	WithdrawnOn *time.Time `json:"withdrawnOn,omitempty"`
}

// BMI is derived from height and weight; nil when either is missing
func (s *Student) BMI() *float64 {
	if s.Height == nil || s.Weight == nil || *s.Height <= 0 {
		return nil
	}
	m := *s.Height / 100
	bmi := math.Round(*s.Weight/(m*m)*10) / 10
	return &bmi
}

// ActiveOn reports whether the student is enrolled on date d
func (s *Student) ActiveOn(d time.Time) bool {
	d = DateOf(d)
	if s.EnrolledOn != nil && d.Before(DateOf(*s.EnrolledOn)) {
		return false
	}
	if s.WithdrawnOn != nil && !d.Before(DateOf(*s.WithdrawnOn)) {
		return false
	}
	return true
}

// SameIdentity compares the immutable identity fields
func (s *Student) SameIdentity(o *Student) bool {
	return s.ID == o.ID &&
		s.Name == o.Name &&
		s.Grade == o.Grade &&
		s.ClassNum == o.ClassNum &&
		s.Number == o.Number &&
		s.Gender == o.Gender
}

// PhysicalUpdate carries a periodic height/weight measurement
type PhysicalUpdate struct {
	Height     float64   `json:"height" validate:"gt=0,lt=250"`
	Weight     float64   `json:"weight" validate:"gt=0,lt=300"`
	MeasuredOn time.Time `json:"measuredOn"`
}

// RosterFilter narrows roster listings; zero fields match everything
type RosterFilter struct {
	Grade    int
	ClassNum int
}

// Matches reports whether s passes the filter
func (f RosterFilter) Matches(s *Student) bool {
	if f.Grade != 0 && s.Grade != f.Grade {
		return false
	}
	if f.ClassNum != 0 && s.ClassNum != f.ClassNum {
		return false
	}
	return true
}
