package contracts

import (
	"fmt"
	"time"
)

// SatisfactionVote is a single 1–5 rating of a menu
type SatisfactionVote struct {
	MenuID  int64     `json:"menuId" validate:"gt=0"`
	VoterID string    `json:"voterId" validate:"required,max=64"`
	Score   int       `json:"score" validate:"gte=1,lte=5"`
	VotedAt time.Time `json:"votedAt"`
}

// SatisfactionSummary is the running aggregate for one menu
type SatisfactionSummary struct {
	MenuID     int64     `json:"menuId"`
	MenuName   string    `json:"menuName"`
	TotalVotes int       `json:"totalVotes"`
	ScoreSum   int       `json:"scoreSum"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Average returns the mean score; nil without votes
func (s SatisfactionSummary) Average() *float64 {
	if s.TotalVotes == 0 {
		return nil
	}
	avg := float64(s.ScoreSum) / float64(s.TotalVotes)
	return &avg
}

// SatisfactionUpdate is the wire shape pushed to dashboards
type SatisfactionUpdate struct {
	MenuID              int64  `json:"menuId"`
	MenuName            string `json:"menuName"`
	TotalVotes          int    `json:"totalVotes"`
	AverageSatisfaction string `json:"averageSatisfaction"`
	UpdatedAt           string `json:"updatedAt"`
}

// ToUpdate shapes the summary for the wire
func (s SatisfactionSummary) ToUpdate() SatisfactionUpdate {
	avg := "0.0"
	if a := s.Average(); a != nil {
		avg = fmt.Sprintf("%.1f", *a)
	}
	return SatisfactionUpdate{
		MenuID:              s.MenuID,
		MenuName:            s.MenuName,
		TotalVotes:          s.TotalVotes,
		AverageSatisfaction: avg,
		UpdatedAt:           s.UpdatedAt.Format(time.RFC3339),
	}
}
