package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/satisfaction"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// SatisfactionHandler handles menu satisfaction votes and the live stream
type SatisfactionHandler struct {
	service *satisfaction.Service
	hub     *satisfaction.Hub
	logger  *logger.Logger
}

// NewSatisfactionHandler creates a new satisfaction handler
func NewSatisfactionHandler(service *satisfaction.Service, hub *satisfaction.Hub, log *logger.Logger) *SatisfactionHandler {
	return &SatisfactionHandler{service: service, hub: hub, logger: log}
}

// Vote records a 1–5 rating and returns the new aggregate
// POST /api/satisfaction/vote
func (h *SatisfactionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req contracts.SatisfactionVote
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, h.logger, err, "record vote")
		return
	}

	update, err := h.service.Vote(r.Context(), req)
	if err != nil {
		respondFailure(w, h.logger, err, "record vote")
		return
	}
	respondJSON(w, http.StatusOK, update)
}

// GetSummary returns the current aggregate of one menu
// GET /api/satisfaction/{menuId}
func (h *SatisfactionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	menuID, err := strconv.ParseInt(mux.Vars(r)["menuId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu id")
		return
	}

	update, err := h.service.Summary(r.Context(), menuID)
	if err != nil {
		respondFailure(w, h.logger, err, "get satisfaction")
		return
	}
	respondJSON(w, http.StatusOK, update)
}

// Stream upgrades to a websocket that receives every SatisfactionUpdate
// GET /api/satisfaction/stream
func (h *SatisfactionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeHTTP(w, r)
}
