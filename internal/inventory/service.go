package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Service records validated inventory facts for the spreadsheet export collaborator
type Service struct {
	repo   contracts.InventoryRepository
	logger *logger.Logger
}

// NewService creates an inventory service
func NewService(repo contracts.InventoryRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Record validates and stores an item, assigning an ID when missing
func (s *Service) Record(ctx context.Context, item *contracts.InventoryItem) (*contracts.InventoryItem, error) {
	item.ProductName = strings.TrimSpace(item.ProductName)
	item.Supplier = strings.TrimSpace(item.Supplier)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.Date = contracts.DateOf(item.Date)
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("record inventory: %w", err)
	}

	s.logger.WithDate(item.Date).WithFields(map[string]interface{}{
		"id":      item.ID.String(),
		"product": item.ProductName,
	}).Debug("Inventory item recorded")
	return item, nil
}

// MonthReport is the inventory of one month with its spend total
type MonthReport struct {
	Year  int                        `json:"year"`
	Month int                        `json:"month"`
	Items []*contracts.InventoryItem `json:"items"`
	Total decimal.Decimal            `json:"total"`
}

// Month lists a calendar month's records
func (s *Service) Month(ctx context.Context, year int, month time.Month) (*MonthReport, error) {
	if month < time.January || month > time.December {
		return nil, &contracts.ValidationError{Field: "month", Message: fmt.Sprintf("month %d out of range", month)}
	}

	items, err := s.repo.List(ctx, contracts.MonthOf(year, month))
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	report := &MonthReport{Year: year, Month: int(month), Items: items, Total: decimal.Zero}
	if report.Items == nil {
		report.Items = []*contracts.InventoryItem{}
	}
	for _, it := range items {
		report.Total = report.Total.Add(it.LineTotal())
	}
	return report, nil
}

func uuidParse(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse id %q: %w", s, err)
	}
	return id, nil
}
