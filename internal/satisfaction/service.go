// Package satisfaction keeps the per-menu satisfaction survey aggregate and
// pushes every change to connected dashboards. It shares menu identity with
// the catalog but is independent of the leftover pipeline.
package satisfaction

import (
	"context"
	"fmt"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// MenuLookup resolves menu identities
type MenuLookup interface {
	Get(ctx context.Context, menuID int64) (*contracts.MenuItem, error)
}

// Broadcaster receives every new summary
type Broadcaster interface {
	Broadcast(update contracts.SatisfactionUpdate)
}

// Service records votes and publishes SatisfactionUpdate messages
type Service struct {
	repo   contracts.SatisfactionRepository
	menus  MenuLookup
	hub    Broadcaster
	now    func() time.Time
	logger *logger.Logger
}

// NewService creates a satisfaction service; hub may be nil
func NewService(repo contracts.SatisfactionRepository, menus MenuLookup, hub Broadcaster, log *logger.Logger) *Service {
	return &Service{repo: repo, menus: menus, hub: hub, now: time.Now, logger: log}
}

// Vote records one voter's 1–5 score for a menu. A revote replaces the
// voter's previous score.
func (s *Service) Vote(ctx context.Context, v contracts.SatisfactionVote) (*contracts.SatisfactionUpdate, error) {
	if err := contracts.ValidateStruct(v); err != nil {
		return nil, err
	}

	m, err := s.menus.Get(ctx, v.MenuID)
	if err != nil {
		return nil, err
	}
	if v.VotedAt.IsZero() {
		v.VotedAt = s.now()
	}

	summary, err := s.repo.Vote(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}
	summary.MenuName = m.MenuName

	update := summary.ToUpdate()
	if s.hub != nil {
		s.hub.Broadcast(update)
	}

	s.logger.WithFields(map[string]interface{}{
		"menu_id":     v.MenuID,
		"total_votes": summary.TotalVotes,
	}).Debug("Satisfaction vote recorded")
	return &update, nil
}

// Summary returns the current aggregate for a menu
func (s *Service) Summary(ctx context.Context, menuID int64) (*contracts.SatisfactionUpdate, error) {
	m, err := s.menus.Get(ctx, menuID)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.Summary(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("vote summary: %w", err)
	}
	summary.MenuName = m.MenuName
	update := summary.ToUpdate()
	return &update, nil
}
