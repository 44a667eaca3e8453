package satisfaction

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/menu"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

type recorder struct {
	updates []contracts.SatisfactionUpdate
}

func (r *recorder) Broadcast(u contracts.SatisfactionUpdate) {
	r.updates = append(r.updates, u)
}

func newService(t *testing.T, hub Broadcaster) *Service {
	t.Helper()
	catalog := menu.NewCatalog(menu.NewMemoryRepository(), logger.Nop())
	require.NoError(t, catalog.Publish(context.Background(), &contracts.MenuItem{MenuID: 7, MenuName: "밥, 국", Date: monday}))
	svc := NewService(NewMemoryRepository(), catalog, hub, logger.Nop())
	svc.now = func() time.Time { return monday.Add(13 * time.Hour) }
	return svc
}

func TestService_VoteAggregates(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := newService(t, rec)

	_, err := svc.Vote(ctx, contracts.SatisfactionVote{MenuID: 7, VoterID: "a", Score: 5})
	require.NoError(t, err)
	_, err = svc.Vote(ctx, contracts.SatisfactionVote{MenuID: 7, VoterID: "b", Score: 4})
	require.NoError(t, err)
	// revote replaces the earlier score
	update, err := svc.Vote(ctx, contracts.SatisfactionVote{MenuID: 7, VoterID: "b", Score: 2})
	require.NoError(t, err)

	assert.Equal(t, contracts.SatisfactionUpdate{
		MenuID:              7,
		MenuName:            "밥, 국",
		TotalVotes:          2,
		AverageSatisfaction: "3.5",
		UpdatedAt:           "2024-03-04T13:00:00Z",
	}, *update)
	assert.Len(t, rec.updates, 3)

	summary, err := svc.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, *update, *summary)
}

func TestService_VoteRejections(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := newService(t, rec)

	_, err := svc.Vote(ctx, contracts.SatisfactionVote{MenuID: 7, VoterID: "a", Score: 6})
	assert.True(t, contracts.IsValidation(err))

	_, err = svc.Vote(ctx, contracts.SatisfactionVote{MenuID: 7, Score: 3})
	assert.True(t, contracts.IsValidation(err))

	_, err = svc.Vote(ctx, contracts.SatisfactionVote{MenuID: 8, VoterID: "a", Score: 3})
	assert.True(t, contracts.IsNotFound(err))

	assert.Empty(t, rec.updates)
}

func TestService_SummaryWithoutVotes(t *testing.T) {
	svc := newService(t, nil)
	summary, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalVotes)
	assert.Equal(t, "0.0", summary.AverageSatisfaction)
}

func TestHub_StreamsUpdates(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	svc := newService(t, hub)
	_, err = svc.Vote(context.Background(), contracts.SatisfactionVote{MenuID: 7, VoterID: "a", Score: 4})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got contracts.SatisfactionUpdate
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, int64(7), got.MenuID)
	assert.Equal(t, "4.0", got.AverageSatisfaction)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
