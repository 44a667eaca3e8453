package schoolconfig

import "time"

// Profile is the school's operating profile (school.yaml)
type Profile struct {
	School    School     `yaml:"school" json:"school"`
	MealSlots []MealSlot `yaml:"meal_slots" json:"meal_slots"`
}

// School 학교 정보
type School struct {
	Name     string `yaml:"name" json:"name"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// MealSlot is one serving window; scans inside [Start, End) belong to it
type MealSlot struct {
	Name  string `yaml:"name" json:"name"`   // ledger key, e.g. "lunch"
	Label string `yaml:"label" json:"label"` // 중식
	Start string `yaml:"start" json:"start"` // HH:MM
	End   string `yaml:"end" json:"end"`     // HH:MM
}

// SlotNames returns the slot keys in profile order
func (p *Profile) SlotNames() []string {
	names := make([]string, 0, len(p.MealSlots))
	for _, s := range p.MealSlots {
		names = append(names, s.Name)
	}
	return names
}

// Location resolves the profile timezone; nil when unset or unknown
func (p *Profile) Location() *time.Location {
	if p.School.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(p.School.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

// SlotAt returns the slot whose window contains t's wall-clock time
func (p *Profile) SlotAt(t time.Time) (string, bool) {
	minute := t.Hour()*60 + t.Minute()
	for _, s := range p.MealSlots {
		start, _ := minuteOfDay(s.Start)
		end, _ := minuteOfDay(s.End)
		if minute >= start && minute < end {
			return s.Name, true
		}
	}
	return "", false
}

func minuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
