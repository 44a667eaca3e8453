package satisfaction

import (
	"context"
	"sync"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// MemoryRepository keeps votes in memory; a voter's revote replaces the earlier score
type MemoryRepository struct {
	mu    sync.Mutex
	votes map[int64]map[string]contracts.SatisfactionVote
}

// NewMemoryRepository creates an empty vote store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{votes: make(map[int64]map[string]contracts.SatisfactionVote)}
}

// Vote implements contracts.SatisfactionRepository
func (r *MemoryRepository) Vote(ctx context.Context, v contracts.SatisfactionVote) (contracts.SatisfactionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byVoter, ok := r.votes[v.MenuID]
	if !ok {
		byVoter = make(map[string]contracts.SatisfactionVote)
		r.votes[v.MenuID] = byVoter
	}
	byVoter[v.VoterID] = v
	return r.summary(v.MenuID), nil
}

// Summary implements contracts.SatisfactionRepository
func (r *MemoryRepository) Summary(ctx context.Context, menuID int64) (contracts.SatisfactionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary(menuID), nil
}

func (r *MemoryRepository) summary(menuID int64) contracts.SatisfactionSummary {
	s := contracts.SatisfactionSummary{MenuID: menuID}
	for _, v := range r.votes[menuID] {
		s.TotalVotes++
		s.ScoreSum += v.Score
		if v.VotedAt.After(s.UpdatedAt) {
			s.UpdatedAt = v.VotedAt
		}
	}
	return s
}
