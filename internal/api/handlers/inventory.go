package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/inventory"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// InventoryHandler handles inventory records
type InventoryHandler struct {
	service *inventory.Service
	clock   Clock
	logger  *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service *inventory.Service, clock Clock, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{service: service, clock: clock, logger: log}
}

// InventoryRequest is an inventory record on the wire
type InventoryRequest struct {
	Date            string          `json:"date"`
	ProductName     string          `json:"productName"`
	Supplier        string          `json:"supplier"`
	Price           decimal.Decimal `json:"price"`
	OrderedQuantity float64         `json:"orderedQuantity"`
	UsedQuantity    float64         `json:"usedQuantity"`
	Unit            string          `json:"unit,omitempty"`
	OrderUnit       string          `json:"orderUnit,omitempty"`
	UseUnit         string          `json:"useUnit,omitempty"`
}

// Record stores one inventory item
// POST /api/inventory
func (h *InventoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req InventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, h.logger, err, "record inventory")
		return
	}

	date := h.clock.Today()
	if req.Date != "" {
		d, err := contracts.ParseDate(req.Date)
		if err != nil {
			respondFailure(w, h.logger, err, "record inventory")
			return
		}
		date = d
	}

	item, err := h.service.Record(r.Context(), &contracts.InventoryItem{
		Date:            date,
		ProductName:     req.ProductName,
		Supplier:        req.Supplier,
		Price:           req.Price,
		OrderedQuantity: req.OrderedQuantity,
		UsedQuantity:    req.UsedQuantity,
		Unit:            req.Unit,
		OrderUnit:       req.OrderUnit,
		UseUnit:         req.UseUnit,
	})
	if err != nil {
		respondFailure(w, h.logger, err, "record inventory")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// GetMonth lists a month's records with the spend total
// GET /api/inventory?year=&month=
func (h *InventoryHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.clock.monthParams(r)
	if err != nil {
		respondFailure(w, h.logger, err, "list inventory")
		return
	}

	report, err := h.service.Month(r.Context(), year, month)
	if err != nil {
		respondFailure(w, h.logger, err, "list inventory")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
