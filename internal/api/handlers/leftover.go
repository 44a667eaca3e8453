package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/leftover"
	"github.com/ssafy/baperang/backend/internal/query"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// LeftoverHandler handles leftover and completion endpoints
type LeftoverHandler struct {
	store  *leftover.Store
	facade *query.Facade
	clock  Clock
	logger *logger.Logger
}

// NewLeftoverHandler creates a new leftover handler
func NewLeftoverHandler(store *leftover.Store, facade *query.Facade, clock Clock, log *logger.Logger) *LeftoverHandler {
	return &LeftoverHandler{store: store, facade: facade, clock: clock, logger: log}
}

// GetDaily returns the leftover rate of one day with its dishes
// GET /api/leftover/daily?date=
func (h *LeftoverHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	date, err := h.clock.dateParam(r, "date")
	if err != nil {
		respondFailure(w, h.logger, err, "get daily leftover")
		return
	}

	resp, err := h.facade.DailyLeftover(r.Context(), date)
	if err != nil {
		respondFailure(w, h.logger, err, "get daily leftover")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetWeekly returns the Monday–Sunday series containing date
// GET /api/leftover/weekly?date=
func (h *LeftoverHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	date, err := h.clock.dateParam(r, "date")
	if err != nil {
		respondFailure(w, h.logger, err, "get weekly leftover")
		return
	}

	resp, err := h.facade.WeeklyLeftover(r.Context(), date)
	if err != nil {
		respondFailure(w, h.logger, err, "get weekly leftover")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetMonthly returns the calendar month series
// GET /api/leftover/monthly?year=&month=
func (h *LeftoverHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.clock.monthParams(r)
	if err != nil {
		respondFailure(w, h.logger, err, "get monthly leftover")
		return
	}

	resp, err := h.facade.MonthlyLeftover(r.Context(), year, month)
	if err != nil {
		respondFailure(w, h.logger, err, "get monthly leftover")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetRanking returns dishes ordered by waste rate
// GET /api/leftover/ranking?date= | ?from=&to=
func (h *LeftoverHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	dr, err := h.chartRange(r)
	if err != nil {
		respondFailure(w, h.logger, err, "get leftover ranking")
		return
	}

	resp, err := h.facade.Ranking(r.Context(), dr)
	if err != nil {
		respondFailure(w, h.logger, err, "get leftover ranking")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetPreference returns dish preference chart data
// GET /api/leftover/preference?date= | ?from=&to=
func (h *LeftoverHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	dr, err := h.chartRange(r)
	if err != nil {
		respondFailure(w, h.logger, err, "get preference")
		return
	}

	resp, err := h.facade.Preference(r.Context(), dr)
	if err != nil {
		respondFailure(w, h.logger, err, "get preference")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// chartRange is a single day unless from/to are given
func (h *LeftoverHandler) chartRange(r *http.Request) (contracts.DateRange, error) {
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		return h.clock.rangeParams(r)
	}
	date, err := h.clock.dateParam(r, "date")
	if err != nil {
		return contracts.DateRange{}, err
	}
	return contracts.SingleDay(date), nil
}

// GetRange returns the raw aggregate of a range with its per-date series
// GET /api/leftover/range?from=&to=
func (h *LeftoverHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	dr, err := h.clock.rangeParams(r)
	if err != nil {
		respondFailure(w, h.logger, err, "get leftover range")
		return
	}

	resp, err := h.facade.Aggregate(r.Context(), dr)
	if err != nil {
		respondFailure(w, h.logger, err, "get leftover range")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetCompletion returns the meal completion card of one day, optionally for one slot
// GET /api/completion?date=&mealSlot=
func (h *LeftoverHandler) GetCompletion(w http.ResponseWriter, r *http.Request) {
	date, err := h.clock.dateParam(r, "date")
	if err != nil {
		respondFailure(w, h.logger, err, "get completion")
		return
	}

	resp, err := h.facade.Completion(r.Context(), date, r.URL.Query().Get("mealSlot"))
	if err != nil {
		respondFailure(w, h.logger, err, "get completion")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// MeasurementRequest is one dish measurement on the wire
type MeasurementRequest struct {
	Date            string   `json:"date"`
	DishName        string   `json:"dishName"`
	WasteRate       *float64 `json:"wasteRate"`
	PreferenceScore *float64 `json:"preferenceScore,omitempty"`
	Category        string   `json:"category,omitempty"`
}

func (m MeasurementRequest) toMeasurement(c Clock) (contracts.LeftoverMeasurement, error) {
	if m.WasteRate == nil {
		return contracts.LeftoverMeasurement{}, &contracts.ValidationError{Field: "wasteRate", Message: "wasteRate is required"}
	}
	date := c.Today()
	if m.Date != "" {
		d, err := contracts.ParseDate(m.Date)
		if err != nil {
			return contracts.LeftoverMeasurement{}, err
		}
		date = d
	}
	return contracts.LeftoverMeasurement{
		Date:            date,
		DishName:        m.DishName,
		WasteRate:       *m.WasteRate,
		PreferenceScore: m.PreferenceScore,
		Category:        m.Category,
	}, nil
}

// Upsert stores one measurement or a batch (JSON array); a batch is all or nothing
// POST /api/leftover
func (h *LeftoverHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		respondFailure(w, h.logger, err, "upsert leftover")
		return
	}

	var reqs []MeasurementRequest
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		if err := json.Unmarshal(raw, &reqs); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		var one MeasurementRequest
		if err := json.Unmarshal(raw, &one); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		reqs = append(reqs, one)
	}

	batch := make([]contracts.LeftoverMeasurement, 0, len(reqs))
	for _, req := range reqs {
		m, err := req.toMeasurement(h.clock)
		if err != nil {
			respondFailure(w, h.logger, err, "upsert leftover")
			return
		}
		batch = append(batch, m)
	}

	if err := h.store.UpsertMeasurements(r.Context(), batch); err != nil {
		respondFailure(w, h.logger, err, "upsert leftover")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stored": len(batch),
	})
}
