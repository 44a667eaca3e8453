package contracts

import (
	"fmt"
	"time"
)

// TagStatus is the reader-side classification of a scan
type TagStatus string

const (
	TagStatusPresent TagStatus = "present"
	TagStatusAbsent  TagStatus = "absent"
	TagStatusError   TagStatus = "error"
)

// TagEvent is one NFC scan outcome. The ledger keeps one logical record per
// (StudentID, Date, MealSlot); the newest RecordedAt wins.
type TagEvent struct {
	StudentID  int64     `json:"studentId" validate:"gt=0"`
	Date       time.Time `json:"date"`
	MealSlot   string    `json:"mealSlot" validate:"required"`
	IsTagged   bool      `json:"isTagged"`
	Status     TagStatus `json:"status,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// CheckStatus rejects a status that contradicts IsTagged: only a present
// scan is tagged. An empty status is derived later.
func (e TagEvent) CheckStatus() error {
	if e.Status == "" {
		return nil
	}
	if (e.Status == TagStatusPresent) != e.IsTagged {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("status %q contradicts isTagged=%t", e.Status, e.IsTagged),
		}
	}
	return nil
}

// TagKey identifies the logical record a TagEvent belongs to
type TagKey struct {
	StudentID int64
	Date      string
	MealSlot  string
}

// Key returns the ledger key of e
func (e TagEvent) Key() TagKey {
	return TagKey{StudentID: e.StudentID, Date: FormatDate(e.Date), MealSlot: e.MealSlot}
}

func (k TagKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.StudentID, k.Date, k.MealSlot)
}

// TagFilter narrows tag queries; zero fields match everything
type TagFilter struct {
	StudentID  int64
	MealSlot   string
	TaggedOnly bool
}

// Matches reports whether e passes the filter
func (f TagFilter) Matches(e TagEvent) bool {
	if f.StudentID != 0 && e.StudentID != f.StudentID {
		return false
	}
	if f.MealSlot != "" && e.MealSlot != f.MealSlot {
		return false
	}
	if f.TaggedOnly && !e.IsTagged {
		return false
	}
	return true
}
