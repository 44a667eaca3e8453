package handlers

import (
	"net/http"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/menu"
	"github.com/ssafy/baperang/backend/internal/query"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// MenuHandler handles menu and nutrient endpoints
type MenuHandler struct {
	catalog *menu.Catalog
	facade  *query.Facade
	clock   Clock
	logger  *logger.Logger
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(catalog *menu.Catalog, facade *query.Facade, clock Clock, log *logger.Logger) *MenuHandler {
	return &MenuHandler{catalog: catalog, facade: facade, clock: clock, logger: log}
}

// GetMenu returns the menu calendar
// GET /api/menu?from=&to=  (default: this week)
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	dr, err := h.clock.rangeParams(r)
	if err != nil {
		respondFailure(w, h.logger, err, "get menu")
		return
	}

	resp, err := h.facade.Menu(r.Context(), dr)
	if err != nil {
		respondFailure(w, h.logger, err, "get menu")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// PublishRequest publishes the menu of one date
type PublishRequest struct {
	MenuID    int64                             `json:"menuId"`
	MenuName  string                            `json:"menuName"`
	Date      string                            `json:"date" validate:"required"`
	Menu      []string                          `json:"menu"`
	Holiday   []string                          `json:"holiday"`
	Nutrients map[string]contracts.NutrientInfo `json:"nutrients"`
}

// Publish stores a menu; menus are immutable once published
// POST /api/menu
func (h *MenuHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, h.logger, err, "publish menu")
		return
	}
	if err := contracts.ValidateStruct(req); err != nil {
		respondFailure(w, h.logger, err, "publish menu")
		return
	}
	date, err := contracts.ParseDate(req.Date)
	if err != nil {
		respondFailure(w, h.logger, err, "publish menu")
		return
	}

	m := &contracts.MenuItem{
		MenuID:    req.MenuID,
		MenuName:  req.MenuName,
		Date:      date,
		Dishes:    req.Menu,
		Holiday:   req.Holiday,
		Nutrients: req.Nutrients,
	}
	if err := h.catalog.Publish(r.Context(), m); err != nil {
		respondFailure(w, h.logger, err, "publish menu")
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// GetNutrient returns nutrient facts of one dish, or the menu total
// GET /api/menu/nutrient?date=&dish=
func (h *MenuHandler) GetNutrient(w http.ResponseWriter, r *http.Request) {
	date, err := h.clock.dateParam(r, "date")
	if err != nil {
		respondFailure(w, h.logger, err, "get nutrient")
		return
	}

	resp, err := h.facade.Nutrient(r.Context(), date, r.URL.Query().Get("dish"))
	if err != nil {
		respondFailure(w, h.logger, err, "get nutrient")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
