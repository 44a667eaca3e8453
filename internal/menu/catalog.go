package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Catalog is the Menu Catalog: published menus, nutrient facts and holidays.
// ⭐ SSOT: 식단 게시/조회는 이 Catalog를 통해서만
type Catalog struct {
	repo      contracts.MenuRepository
	listeners []contracts.ChangeListener
	logger    *logger.Logger
}

// NewCatalog creates a menu catalog
func NewCatalog(repo contracts.MenuRepository, log *logger.Logger) *Catalog {
	return &Catalog{repo: repo, logger: log}
}

// Subscribe registers a listener notified when a new menu is published
func (c *Catalog) Subscribe(listener contracts.ChangeListener) {
	c.listeners = append(c.listeners, listener)
}

// Publish stores a menu for its date. Menus are immutable: republishing the
// same content is a no-op, different content is a ConflictError.
func (c *Catalog) Publish(ctx context.Context, m *contracts.MenuItem) error {
	if err := normalize(m); err != nil {
		return err
	}

	if err := c.repo.Publish(ctx, m); err != nil {
		if contracts.IsConflict(err) {
			return err
		}
		return fmt.Errorf("publish menu %s: %w", contracts.FormatDate(m.Date), err)
	}

	c.logger.WithDate(m.Date).WithFields(map[string]interface{}{
		"menu_id": m.MenuID,
		"dishes":  len(m.Dishes),
		"holiday": m.IsHoliday(),
	}).Debug("Menu published")

	for _, listener := range c.listeners {
		listener.DatesChanged(ctx, m.Date)
	}
	return nil
}

// normalize fills derived fields and validates a menu before publication
func normalize(m *contracts.MenuItem) error {
	if m.Date.IsZero() {
		return &contracts.ValidationError{Field: "date", Message: "date is required"}
	}
	m.Date = contracts.DateOf(m.Date)

	if len(m.Dishes) == 0 {
		m.Dishes = contracts.ParseMenuName(m.MenuName)
	}
	for i, d := range m.Dishes {
		m.Dishes[i] = strings.TrimSpace(d)
	}
	if m.MenuName == "" {
		m.MenuName = strings.Join(m.Dishes, ", ")
	}
	if m.MenuID == 0 {
		m.MenuID = MenuIDFor(m.Date)
	}

	if err := contracts.ValidateStruct(m); err != nil {
		return err
	}
	if len(m.Dishes) == 0 && !m.IsHoliday() {
		return &contracts.ValidationError{Field: "menu", Message: "a menu needs dishes unless the date is a holiday"}
	}
	for dish := range m.Nutrients {
		if !m.HasDish(dish) {
			return &contracts.ValidationError{Field: "nutrients", Message: fmt.Sprintf("nutrient facts for %q which is not on the menu", dish)}
		}
	}
	return nil
}

// MenuIDFor derives the default menu ID of a service date (YYYYMMDD)
func MenuIDFor(date time.Time) int64 {
	y, m, d := date.Date()
	return int64(y*10000 + int(m)*100 + d)
}

// Get returns a menu by ID
func (c *Catalog) Get(ctx context.Context, menuID int64) (*contracts.MenuItem, error) {
	return c.repo.Get(ctx, menuID)
}

// GetByDate returns the menu of a service date
func (c *Catalog) GetByDate(ctx context.Context, date time.Time) (*contracts.MenuItem, error) {
	return c.repo.GetByDate(ctx, contracts.DateOf(date))
}

// Range lists menus published within the range, ordered by date
func (c *Catalog) Range(ctx context.Context, dr contracts.DateRange) ([]*contracts.MenuItem, error) {
	menus, err := c.repo.Range(ctx, dr)
	if err != nil {
		return nil, fmt.Errorf("menus %s: %w", dr, err)
	}
	return menus, nil
}

// Nutrient returns the nutrient facts of one dish on a date, or the menu
// total when dish is empty.
func (c *Catalog) Nutrient(ctx context.Context, date time.Time, dish string) (*contracts.NutrientInfo, error) {
	m, err := c.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	if dish == "" {
		total := m.TotalNutrient()
		if total == nil {
			return nil, &contracts.NotFoundError{Kind: "nutrient", Key: contracts.FormatDate(m.Date)}
		}
		return total, nil
	}

	info, ok := m.Nutrients[dish]
	if !ok {
		return nil, &contracts.NotFoundError{Kind: "nutrient", Key: contracts.FormatDate(m.Date) + "/" + dish}
	}
	return &info, nil
}
