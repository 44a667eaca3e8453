package satisfaction

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// Repository persists satisfaction votes in PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new vote repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Vote implements contracts.SatisfactionRepository
func (r *Repository) Vote(ctx context.Context, v contracts.SatisfactionVote) (contracts.SatisfactionSummary, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO meal.satisfaction_votes (menu_id, voter_id, score, voted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (menu_id, voter_id) DO UPDATE SET
			score = EXCLUDED.score,
			voted_at = EXCLUDED.voted_at`,
		v.MenuID, v.VoterID, v.Score, v.VotedAt,
	)
	if err != nil {
		return contracts.SatisfactionSummary{}, fmt.Errorf("upsert vote: %w", err)
	}
	return r.Summary(ctx, v.MenuID)
}

// Summary implements contracts.SatisfactionRepository
func (r *Repository) Summary(ctx context.Context, menuID int64) (contracts.SatisfactionSummary, error) {
	s := contracts.SatisfactionSummary{MenuID: menuID}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(score), 0), COALESCE(MAX(voted_at), 'epoch'::timestamptz)
		FROM meal.satisfaction_votes
		WHERE menu_id = $1`, menuID,
	).Scan(&s.TotalVotes, &s.ScoreSum, &s.UpdatedAt)
	if err != nil {
		return s, fmt.Errorf("vote summary: %w", err)
	}
	return s, nil
}
