package schoolconfig

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var slotNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks all required constraints
func Validate(p *Profile) error {
	if p.School.Timezone != "" {
		if _, err := time.LoadLocation(p.School.Timezone); err != nil {
			return ValidationError{"school.timezone", err.Error()}
		}
	}

	if len(p.MealSlots) == 0 {
		return ValidationError{"meal_slots", "at least one slot is required"}
	}

	type window struct {
		name       string
		start, end int
	}
	windows := make([]window, 0, len(p.MealSlots))
	seen := make(map[string]bool, len(p.MealSlots))

	for i, s := range p.MealSlots {
		field := fmt.Sprintf("meal_slots[%d]", i)
		if !slotNamePattern.MatchString(s.Name) {
			return ValidationError{field + ".name", "must be lower_snake_case"}
		}
		if seen[s.Name] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate slot %q", s.Name)}
		}
		seen[s.Name] = true

		start, err := minuteOfDay(s.Start)
		if err != nil {
			return ValidationError{field + ".start", "must be HH:MM"}
		}
		end, err := minuteOfDay(s.End)
		if err != nil {
			return ValidationError{field + ".end", "must be HH:MM"}
		}
		if start >= end {
			return ValidationError{field, "start must be before end"}
		}
		windows = append(windows, window{s.Name, start, end})
	}

	// 배식 시간대는 겹치면 안 됨
	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })
	for i := 1; i < len(windows); i++ {
		if windows[i].start < windows[i-1].end {
			return ValidationError{"meal_slots", fmt.Sprintf("%s overlaps %s", windows[i].name, windows[i-1].name)}
		}
	}

	return nil
}
