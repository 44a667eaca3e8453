package schoolconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	p, err := Load("testdata/school.yaml")
	require.NoError(t, err)

	assert.Equal(t, "싸피초등학교", p.School.Name)
	assert.Equal(t, []string{"breakfast", "lunch", "dinner"}, p.SlotNames())
	require.NotNil(t, p.Location())
	assert.Equal(t, "Asia/Seoul", p.Location().String())

	// 동일 설정 → 동일 해시
	h1, err := Hash(p)
	require.NoError(t, err)
	h2, _ := Hash(p)
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)
}

func TestProfile_SlotAt(t *testing.T) {
	p, err := Load("testdata/school.yaml")
	require.NoError(t, err)

	at := func(h, m int) time.Time { return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC) }

	tests := []struct {
		time time.Time
		slot string
		ok   bool
	}{
		{at(7, 0), "breakfast", true},
		{at(11, 29), "", false},
		{at(11, 30), "lunch", true},
		{at(13, 29), "lunch", true},
		{at(13, 30), "", false},
		{at(18, 0), "dinner", true},
	}
	for _, tt := range tests {
		slot, ok := p.SlotAt(tt.time)
		assert.Equal(t, tt.ok, ok, tt.time.Format("15:04"))
		assert.Equal(t, tt.slot, slot, tt.time.Format("15:04"))
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"unknown field", "school: {name: x}\nmeal_slot: []\n", ""},
		{"no slots", "school: {name: x}\nmeal_slots: []\n", "meal_slots"},
		{"bad name", "meal_slots: [{name: Lunch, start: '11:00', end: '12:00'}]\n", "meal_slots[0].name"},
		{"bad time", "meal_slots: [{name: lunch, start: '11h', end: '12:00'}]\n", "meal_slots[0].start"},
		{"inverted", "meal_slots: [{name: lunch, start: '13:00', end: '12:00'}]\n", "meal_slots[0]"},
		{"duplicate", "meal_slots: [{name: lunch, start: '11:00', end: '12:00'}, {name: lunch, start: '17:00', end: '18:00'}]\n", "meal_slots[1].name"},
		{"overlap", "meal_slots: [{name: lunch, start: '11:00', end: '13:00'}, {name: snack, start: '12:30', end: '14:00'}]\n", "meal_slots"},
		{"bad timezone", "school: {timezone: Mars/Olympus}\nmeal_slots: [{name: lunch, start: '11:00', end: '12:00'}]\n", "school.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			if tt.field != "" {
				var ve ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.field, ve.Field)
			}
		})
	}
}
