package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/query"
	"github.com/ssafy/baperang/backend/internal/tagging"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// ReaderHeader identifies the NFC reader posting a scan
const ReaderHeader = "X-Reader-ID"

const (
	// a reader silent this long loses its token bucket
	limiterIdleTTL = 10 * time.Minute
	maxReaders     = 1024
)

// NFCInfo is the scan payload sent by an NFC reader
type NFCInfo struct {
	PK       string `json:"pk" validate:"required"`
	Grade    string `json:"grade"`
	Class    string `json:"class"`
	Number   string `json:"number"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Status   string `json:"status" validate:"omitempty,oneof=present absent error"`
	IsTagged bool   `json:"isTagged"`

	// optional; default to today, the first meal slot and arrival time
	Date       string     `json:"date,omitempty"`
	MealSlot   string     `json:"mealSlot,omitempty"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// SlotResolver maps a scan's local time to a meal slot
type SlotResolver interface {
	SlotAt(t time.Time) (string, bool)
}

// NFCHandler handles the tagging endpoints
type NFCHandler struct {
	ledger *tagging.Ledger
	facade *query.Facade
	clock  Clock
	slots  SlotResolver
	logger *logger.Logger

	rps        rate.Limit
	burst      int
	maxReaders int
	mu         sync.Mutex
	limiters   map[string]*readerLimiter
}

type readerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewNFCHandler creates a new NFC handler; each reader gets its own token bucket
func NewNFCHandler(ledger *tagging.Ledger, facade *query.Facade, clock Clock, rps float64, burst int, log *logger.Logger) *NFCHandler {
	return &NFCHandler{
		ledger:     ledger,
		facade:     facade,
		clock:      clock,
		logger:     log,
		rps:        rate.Limit(rps),
		burst:      burst,
		maxReaders: maxReaders,
		limiters:   make(map[string]*readerLimiter),
	}
}

// WithSlotResolver picks the meal slot from the scan time when a reader omits it
func (h *NFCHandler) WithSlotResolver(slots SlotResolver) *NFCHandler {
	h.slots = slots
	return h
}

// limiter returns the bucket of reader. The map never holds more than
// maxReaders entries: idle readers go first, then the least recently seen.
func (h *NFCHandler) limiter(reader string) *rate.Limiter {
	now := h.clock.now()

	h.mu.Lock()
	defer h.mu.Unlock()

	if rl, ok := h.limiters[reader]; ok {
		rl.lastSeen = now
		return rl.limiter
	}

	if len(h.limiters) >= h.maxReaders {
		h.evictIdle(now)
	}
	for len(h.limiters) > 0 && len(h.limiters) >= h.maxReaders {
		h.evictOldest()
	}

	rl := &readerLimiter{limiter: rate.NewLimiter(h.rps, h.burst), lastSeen: now}
	h.limiters[reader] = rl
	return rl.limiter
}

func (h *NFCHandler) evictIdle(now time.Time) {
	for id, rl := range h.limiters {
		if now.Sub(rl.lastSeen) > limiterIdleTTL {
			delete(h.limiters, id)
		}
	}
}

func (h *NFCHandler) evictOldest() {
	var oldest string
	var seen time.Time
	for id, rl := range h.limiters {
		if oldest == "" || rl.lastSeen.Before(seen) {
			oldest, seen = id, rl.lastSeen
		}
	}
	delete(h.limiters, oldest)
}

func readerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ReaderHeader)); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Tag records one scan
// POST /api/nfc/tag
func (h *NFCHandler) Tag(w http.ResponseWriter, r *http.Request) {
	reader := readerID(r)
	if !h.limiter(reader).Allow() {
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusTooManyRequests, "reader "+reader+" is scanning too fast")
		return
	}

	var req NFCInfo
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, h.logger, err, "record tag")
		return
	}
	if err := contracts.ValidateStruct(req); err != nil {
		respondFailure(w, h.logger, err, "record tag")
		return
	}

	ev, err := h.toEvent(req)
	if err != nil {
		respondFailure(w, h.logger, err, "record tag")
		return
	}

	if err := h.ledger.RecordTag(r.Context(), ev); err != nil {
		respondFailure(w, h.logger, err, "record tag")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"reader":     reader,
		"student_id": ev.StudentID,
	}).Debug("NFC scan accepted")

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"studentId": ev.StudentID,
		"date":      contracts.FormatDate(ev.Date),
		"mealSlot":  ev.MealSlot,
		"isTagged":  ev.IsTagged,
	})
}

func (h *NFCHandler) toEvent(req NFCInfo) (contracts.TagEvent, error) {
	id, err := tagging.ParseStudentKey(req.PK)
	if err != nil {
		return contracts.TagEvent{}, err
	}

	// a backfilled scan belongs to the day it happened
	scannedAt := h.clock.now()
	if req.RecordedAt != nil {
		scannedAt = *req.RecordedAt
	}
	local := scannedAt.In(h.clock.location())

	date := contracts.DateOf(local)
	if req.Date != "" {
		if date, err = contracts.ParseDate(req.Date); err != nil {
			return contracts.TagEvent{}, err
		}
	}

	slot := req.MealSlot
	if slot == "" && h.slots != nil {
		slot, _ = h.slots.SlotAt(local)
	}
	if slot == "" {
		slot = h.ledger.DefaultSlot()
	}

	ev := contracts.TagEvent{
		StudentID: id,
		Date:      date,
		MealSlot:  slot,
		IsTagged:  req.IsTagged,
		Status:    contracts.TagStatus(req.Status),
	}
	if req.RecordedAt != nil {
		ev.RecordedAt = *req.RecordedAt
	}
	return ev, nil
}

// Students lists the tagging board of a date
// GET /api/nfc/students?date=&mealSlot=
func (h *NFCHandler) Students(w http.ResponseWriter, r *http.Request) {
	date, err := h.clock.dateParam(r, "date")
	if err != nil {
		respondFailure(w, h.logger, err, "list tagging board")
		return
	}

	board, err := h.facade.NFCStudents(r.Context(), date, r.URL.Query().Get("mealSlot"))
	if err != nil {
		respondFailure(w, h.logger, err, "list tagging board")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":     contracts.FormatDate(date),
		"students": board,
		"total":    len(board),
		"tagged":   countTagged(board),
	})
}

func countTagged(board []query.StudentInfo) int {
	n := 0
	for _, s := range board {
		if s.IsTagged {
			n++
		}
	}
	return n
}
