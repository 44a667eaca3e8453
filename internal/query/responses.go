package query

import (
	"math"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// LeftoverData is one dish line of a daily leftover response
type LeftoverData struct {
	DishName  string  `json:"dishName"`
	WasteRate float64 `json:"wasteRate"`
}

// DailyLeftoverResponse is the leftover view of one date
type DailyLeftoverResponse struct {
	Date         string         `json:"date"`
	LeftoverRate *float64       `json:"leftoverRate"`
	Dishes       []LeftoverData `json:"dishes"`
}

// LeftoverDay is one point of a weekly/monthly series
type LeftoverDay struct {
	Date         string   `json:"date"`
	Day          int      `json:"day,omitempty"`
	LeftoverRate *float64 `json:"leftoverRate"`
}

// WeeklyLeftoverResponse is the Monday–Sunday leftover series
type WeeklyLeftoverResponse struct {
	From         string        `json:"from"`
	To           string        `json:"to"`
	LeftoverRate *float64      `json:"leftoverRate"`
	Days         []LeftoverDay `json:"days"`
}

// MonthlyLeftoverResponse is the calendar-month leftover series
type MonthlyLeftoverResponse struct {
	Year         int           `json:"year"`
	Month        int           `json:"month"`
	LeftoverRate *float64      `json:"leftoverRate"`
	Days         []LeftoverDay `json:"days"`
}

// WasteData is a chart point; Korean keys are the dashboard's wire format.
// 잔반률 and 선호도 are percentages.
type WasteData struct {
	Name       string   `json:"name"`
	WasteRate  float64  `json:"잔반률"`
	Preference *float64 `json:"선호도,omitempty"`
	Category   string   `json:"category,omitempty"`
}

// PreferenceData is a preference chart point
type PreferenceData struct {
	Name       string  `json:"name"`
	Preference float64 `json:"선호도"`
}

// MealCompletionRate is the completion card; CompletionRate is 0–100
type MealCompletionRate struct {
	CompletionRate    *float64 `json:"completionRate"`
	TotalStudents     int      `json:"totalStudents"`
	CompletedStudents int      `json:"completedStudents"`
	MealSlot          string   `json:"mealSlot,omitempty"`
}

// StudentSummary is one row of the roster listing
type StudentSummary struct {
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName"`
	Grade       int    `json:"grade"`
	ClassNum    int    `json:"classNum"`
	Number      int    `json:"number"`
	Gender      string `json:"gender"`
}

// StudentListResponse is the roster listing
type StudentListResponse struct {
	Students []StudentSummary `json:"students"`
}

// StudentDetailResponse is one student with physical data and weekly leftover
type StudentDetailResponse struct {
	StudentID             int64    `json:"studentId"`
	StudentName           string   `json:"studentName"`
	Grade                 int      `json:"grade"`
	ClassNum              int      `json:"classNum"`
	Number                int      `json:"number"`
	Gender                string   `json:"gender"`
	Height                *float64 `json:"height"`
	Weight                *float64 `json:"weight"`
	BMI                   *float64 `json:"bmi"`
	Date                  string   `json:"date"`
	Content               string   `json:"content"`
	SchoolName            string   `json:"schoolName"`
	WeeklyLeftoverAverage *float64 `json:"weeklyLeftoverAverage"`
}

// StudentInfo is one row of the NFC tagging board
type StudentInfo struct {
	StudentID int64  `json:"studentId"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	IsTagged  bool   `json:"isTagged"`
}

// MenuView is a published menu as the dashboard reads it
type MenuView struct {
	MenuID    int64                   `json:"menuId"`
	MenuName  string                  `json:"menuName"`
	Date      string                  `json:"date"`
	Menu      []string                `json:"menu"`
	WasteData []WasteData             `json:"wasteData,omitempty"`
	Holiday   []string                `json:"holiday,omitempty"`
	Nutrient  *contracts.NutrientInfo `json:"nutrient,omitempty"`
}

// DayMenuData is one day of the menu calendar
type DayMenuData struct {
	Date          string     `json:"date"`
	DayOfWeekName string     `json:"dayOfWeekName"`
	Menu          []MenuView `json:"menu"`
	Holiday       []string   `json:"holiday,omitempty"`
}

// MenuResponse is the menu calendar for a range
type MenuResponse struct {
	Days []DayMenuData `json:"days"`
}

// NutrientResponse lists formatted nutrient values of a dish or a whole menu
type NutrientResponse struct {
	Nutrients map[string]string `json:"영양소"`
	Menu      string            `json:"메뉴"`
}

var dayNames = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}

func percentPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v*100, 1)
	return &r
}

func wasteData(dishes []contracts.DishRate) []WasteData {
	out := make([]WasteData, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, WasteData{
			Name:       d.DishName,
			WasteRate:  round(d.WasteRate*100, 1),
			Preference: roundPtr(d.PreferenceScore, 1),
			Category:   d.Category,
		})
	}
	return out
}

// bmiContent classifies BMI by the Korean adult cut-offs
func bmiContent(bmi *float64) string {
	if bmi == nil {
		return ""
	}
	switch {
	case *bmi < 18.5:
		return "저체중"
	case *bmi < 23:
		return "정상"
	case *bmi < 25:
		return "과체중"
	default:
		return "비만"
	}
}
