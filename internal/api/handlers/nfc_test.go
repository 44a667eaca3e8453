package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ssafy/baperang/backend/pkg/logger"
)

func newLimitedHandler(now *time.Time, readers int) *NFCHandler {
	clock := Clock{Now: func() time.Time { return *now }}
	h := NewNFCHandler(nil, nil, clock, 5, 10, logger.Nop())
	h.maxReaders = readers
	return h
}

func TestNFCHandler_IdleReadersEvicted(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	h := newLimitedHandler(&now, 3)

	for i := 0; i < 3; i++ {
		h.limiter(fmt.Sprintf("reader-%d", i))
	}
	assert.Len(t, h.limiters, 3)

	now = now.Add(limiterIdleTTL + time.Minute)
	h.limiter("reader-0")
	h.limiter("reader-3")

	assert.Len(t, h.limiters, 2)
	assert.Contains(t, h.limiters, "reader-0")
	assert.Contains(t, h.limiters, "reader-3")
}

func TestNFCHandler_ReaderMapIsCapped(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	h := newLimitedHandler(&now, 2)

	for i := 0; i < 100; i++ {
		now = now.Add(time.Second)
		h.limiter(fmt.Sprintf("spoofed-%d", i))
		assert.LessOrEqual(t, len(h.limiters), 2)
	}
	assert.Contains(t, h.limiters, "spoofed-99")
	assert.Contains(t, h.limiters, "spoofed-98")
}

func TestNFCHandler_KnownReaderKeepsBucket(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	h := newLimitedHandler(&now, 2)

	first := h.limiter("reader-a")
	now = now.Add(time.Minute)
	assert.Same(t, first, h.limiter("reader-a"))
	assert.Equal(t, now, h.limiters["reader-a"].lastSeen)
}
