package contracts

import (
	"reflect"
	"strings"
	"time"
)

// NutrientInfo holds fixed nutrient facts for one dish
type NutrientInfo struct {
	Kcal       float64 `json:"kcal"`       // 에너지(kcal)
	Carbo      float64 `json:"carbo"`      // 탄수화물(g)
	Protein    float64 `json:"protein"`    // 단백질(g)
	Fat        float64 `json:"fat"`        // 지방(g)
	Iron       float64 `json:"iron"`       // 철(mg)
	Magnesium  float64 `json:"magnesium"`  // 마그네슘(mg)
	Zinc       float64 `json:"zinc"`       // 아연(mg)
	Calcium    float64 `json:"calcium"`    // 칼슘(mg)
	Potassium  float64 `json:"potassium"`  // 칼륨(mg)
	Phosphorus float64 `json:"phosphorus"` // 인(mg)
	Sugar      float64 `json:"sugar"`      // 당류(g)
	Sodium     float64 `json:"sodium"`     // 나트륨(mg)
}

// Add returns the field-wise sum
func (n NutrientInfo) Add(o NutrientInfo) NutrientInfo {
	return NutrientInfo{
		Kcal:       n.Kcal + o.Kcal,
		Carbo:      n.Carbo + o.Carbo,
		Protein:    n.Protein + o.Protein,
		Fat:        n.Fat + o.Fat,
		Iron:       n.Iron + o.Iron,
		Magnesium:  n.Magnesium + o.Magnesium,
		Zinc:       n.Zinc + o.Zinc,
		Calcium:    n.Calcium + o.Calcium,
		Potassium:  n.Potassium + o.Potassium,
		Phosphorus: n.Phosphorus + o.Phosphorus,
		Sugar:      n.Sugar + o.Sugar,
		Sodium:     n.Sodium + o.Sodium,
	}
}

// MenuItem is the published menu of one service date. Immutable once published.
type MenuItem struct {
	MenuID    int64                   `json:"menuId" validate:"gt=0"`
	MenuName  string                  `json:"menuName"`
	Date      time.Time               `json:"date"`
	Dishes    []string                `json:"menu"`
	Nutrients map[string]NutrientInfo `json:"nutrients,omitempty"`
	Holiday   []string                `json:"holiday,omitempty"`
}

// IsHoliday reports whether the date is marked as a school holiday
func (m *MenuItem) IsHoliday() bool {
	return len(m.Holiday) > 0
}

// HasDish reports whether name is served on this menu
func (m *MenuItem) HasDish(name string) bool {
	for _, d := range m.Dishes {
		if d == name {
			return true
		}
	}
	return false
}

// TotalNutrient sums nutrient facts across dishes; nil when none are known
func (m *MenuItem) TotalNutrient() *NutrientInfo {
	if len(m.Nutrients) == 0 {
		return nil
	}
	var total NutrientInfo
	for _, n := range m.Nutrients {
		total = total.Add(n)
	}
	return &total
}

// Equal compares published content, ignoring map/slice identity
func (m *MenuItem) Equal(o *MenuItem) bool {
	return m.MenuID == o.MenuID &&
		m.MenuName == o.MenuName &&
		DateOf(m.Date).Equal(DateOf(o.Date)) &&
		reflect.DeepEqual(normalizeList(m.Dishes), normalizeList(o.Dishes)) &&
		reflect.DeepEqual(normalizeList(m.Holiday), normalizeList(o.Holiday)) &&
		reflect.DeepEqual(normalizeMap(m.Nutrients), normalizeMap(o.Nutrients))
}

func normalizeList(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func normalizeMap(m map[string]NutrientInfo) map[string]NutrientInfo {
	if len(m) == 0 {
		return nil
	}
	return m
}

// ParseMenuName splits "밥, 국, 김치" into trimmed dish names
func ParseMenuName(menuName string) []string {
	var dishes []string
	for _, part := range strings.Split(menuName, ",") {
		if p := strings.TrimSpace(part); p != "" {
			dishes = append(dishes, p)
		}
	}
	return dishes
}
