package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ssafy/baperang/backend/internal/aggregate"
	"github.com/ssafy/baperang/backend/internal/api/handlers"
	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/inventory"
	"github.com/ssafy/baperang/backend/internal/leftover"
	"github.com/ssafy/baperang/backend/internal/menu"
	"github.com/ssafy/baperang/backend/internal/query"
	"github.com/ssafy/baperang/backend/internal/roster"
	"github.com/ssafy/baperang/backend/internal/satisfaction"
	"github.com/ssafy/baperang/backend/internal/schoolconfig"
	"github.com/ssafy/baperang/backend/internal/tagging"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

type testServer struct {
	handler http.Handler
	roster  *roster.Service
}

func newTestServer(t *testing.T, readerRPS float64, readerBurst int) *testServer {
	t.Helper()
	log := logger.Nop()
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	clock := handlers.Clock{
		Location: seoul,
		Now:      func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, seoul) },
	}

	rosterRepo := roster.NewMemoryRepository()
	rosterSvc := roster.NewService(rosterRepo, log)
	ledger := tagging.NewLedger(tagging.NewMemoryRepository(), rosterRepo, []string{"lunch", "dinner"}, log)
	store := leftover.NewStore(leftover.NewMemoryRepository(), log)
	catalog := menu.NewCatalog(menu.NewMemoryRepository(), log)
	engine := aggregate.NewEngine(rosterSvc, ledger, store, catalog, log)
	facade := query.NewFacade(engine, rosterSvc, ledger, catalog, query.Options{SchoolName: "싸피초등학교", MealSlots: ledger.MealSlots()}, log)

	ledger.Subscribe(facade)
	store.Subscribe(facade)
	catalog.Subscribe(facade)
	rosterSvc.Subscribe(facade)

	profile, err := schoolconfig.Parse([]byte(`
meal_slots:
  - {name: lunch, label: 중식, start: "11:30", end: "13:30"}
  - {name: dinner, label: 석식, start: "17:30", end: "19:00"}
`))
	require.NoError(t, err)

	hub := satisfaction.NewHub(log)
	h := Handlers{
		Students:     handlers.NewStudentHandler(rosterSvc, facade, clock, log),
		Menu:         handlers.NewMenuHandler(catalog, facade, clock, log),
		NFC:          handlers.NewNFCHandler(ledger, facade, clock, readerRPS, readerBurst, log).WithSlotResolver(profile),
		Leftover:     handlers.NewLeftoverHandler(store, facade, clock, log),
		Satisfaction: handlers.NewSatisfactionHandler(satisfaction.NewService(satisfaction.NewMemoryRepository(), catalog, hub, log), hub, log),
		Inventory:    handlers.NewInventoryHandler(inventory.NewService(inventory.NewMemoryRepository(), log), clock, log),
	}

	_, err = rosterSvc.Import(context.Background(), []*contracts.Student{
		{ID: 1, Name: "김민준", Grade: 1, ClassNum: 1, Number: 1, Gender: "M"},
		{ID: 2, Name: "이서연", Grade: 1, ClassNum: 1, Number: 2, Gender: "F"},
	})
	require.NoError(t, err)

	return &testServer{handler: NewRouter(h, log), roster: rosterSvc}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, 100, 100)

	rec := s.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "baperang-api", decode(t, rec)["service"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = s.do(t, "GET", "/health", nil, RequestIDHeader, "req-1")
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
}

func TestRouter_TagThenCompletion(t *testing.T) {
	s := newTestServer(t, 100, 100)

	rec := s.do(t, "POST", "/api/nfc/tag", map[string]interface{}{"pk": "1", "isTagged": true})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "2024-03-04", body["date"])
	assert.Equal(t, "lunch", body["mealSlot"])

	rec = s.do(t, "GET", "/api/completion?date=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"completionRate":50,"totalStudents":2,"completedStudents":1}`, rec.Body.String())

	rec = s.do(t, "GET", "/api/nfc/students?date=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode(t, rec)
	assert.EqualValues(t, 2, board["total"])
	assert.EqualValues(t, 1, board["tagged"])
}

func TestRouter_SlotCompletion(t *testing.T) {
	s := newTestServer(t, 100, 100)

	rec := s.do(t, "POST", "/api/nfc/tag", `{"pk":"1","isTagged":true,"mealSlot":"lunch"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	rec = s.do(t, "POST", "/api/nfc/tag", `{"pk":"2","isTagged":true,"mealSlot":"dinner"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = s.do(t, "GET", "/api/completion?date=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"completionRate":100,"totalStudents":2,"completedStudents":2}`, rec.Body.String())

	rec = s.do(t, "GET", "/api/completion?date=2024-03-04&mealSlot=lunch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"completionRate":50,"totalStudents":2,"completedStudents":1,"mealSlot":"lunch"}`, rec.Body.String())

	// a later dinner scan shows up in the cached slot view
	rec = s.do(t, "POST", "/api/nfc/tag", `{"pk":"1","isTagged":true,"mealSlot":"dinner"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	rec = s.do(t, "GET", "/api/completion?date=2024-03-04&mealSlot=dinner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"completionRate":100,"totalStudents":2,"completedStudents":2,"mealSlot":"dinner"}`, rec.Body.String())

	rec = s.do(t, "GET", "/api/completion?date=2024-03-04&mealSlot=breakfast", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_TagSlotFromScanTime(t *testing.T) {
	s := newTestServer(t, 100, 100)

	// 18:10 KST falls in the dinner window
	rec := s.do(t, "POST", "/api/nfc/tag", `{"pk":"2","isTagged":true,"recordedAt":"2024-03-04T09:10:00Z"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "dinner", decode(t, rec)["mealSlot"])

	// outside every window the first slot is used
	rec = s.do(t, "POST", "/api/nfc/tag", `{"pk":"2","isTagged":true,"recordedAt":"2024-03-04T06:00:00Z"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "lunch", decode(t, rec)["mealSlot"])

	// 00:30 KST on the 5th is still UTC the 4th; the school date wins
	rec = s.do(t, "POST", "/api/nfc/tag", `{"pk":"2","isTagged":true,"mealSlot":"lunch","recordedAt":"2024-03-04T15:30:00Z"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "2024-03-05", decode(t, rec)["date"])
}

func TestRouter_TagErrors(t *testing.T) {
	s := newTestServer(t, 100, 100)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown student", `{"pk":"99","isTagged":true}`, http.StatusNotFound},
		{"non numeric key", `{"pk":"abc","isTagged":true}`, http.StatusBadRequest},
		{"missing key", `{"isTagged":true}`, http.StatusBadRequest},
		{"bad date", `{"pk":"1","date":"03/04/2024"}`, http.StatusBadRequest},
		{"unknown slot", `{"pk":"1","mealSlot":"brunch"}`, http.StatusBadRequest},
		{"bad status", `{"pk":"1","status":"late"}`, http.StatusBadRequest},
		{"status contradicts tag", `{"pk":"1","status":"absent","isTagged":true}`, http.StatusBadRequest},
		{"malformed json", `{"pk":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, "POST", "/api/nfc/tag", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_TagConflict(t *testing.T) {
	s := newTestServer(t, 100, 100)
	at := "2024-03-04T03:00:00Z"

	rec := s.do(t, "POST", "/api/nfc/tag", `{"pk":"1","isTagged":true,"recordedAt":"`+at+`"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, "POST", "/api/nfc/tag", `{"pk":"1","isTagged":false,"recordedAt":"`+at+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_ReaderRateLimit(t *testing.T) {
	s := newTestServer(t, 0.001, 2)
	body := `{"pk":"1","isTagged":true,"recordedAt":"2024-03-04T03:00:00Z"}`

	for i := 0; i < 2; i++ {
		rec := s.do(t, "POST", "/api/nfc/tag", body, handlers.ReaderHeader, "reader-a")
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	rec := s.do(t, "POST", "/api/nfc/tag", body, handlers.ReaderHeader, "reader-a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// other readers have their own bucket
	rec = s.do(t, "POST", "/api/nfc/tag", body, handlers.ReaderHeader, "reader-b")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouter_LeftoverUpsertAndViews(t *testing.T) {
	s := newTestServer(t, 100, 100)

	// an invalid entry rejects the whole batch
	rec := s.do(t, "POST", "/api/leftover", `[
		{"date":"2024-03-04","dishName":"김치찌개","wasteRate":0.2},
		{"date":"2024-03-04","dishName":"밥","wasteRate":1.5}
	]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/leftover/daily?date=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2024-03-04","leftoverRate":null,"dishes":[]}`, rec.Body.String())

	rec = s.do(t, "POST", "/api/leftover", `[
		{"date":"2024-03-04","dishName":"김치찌개","wasteRate":0.2,"preferenceScore":80},
		{"date":"2024-03-04","dishName":"밥","wasteRate":0.4}
	]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode(t, rec)["stored"])

	rec = s.do(t, "POST", "/api/leftover", `{"date":"2024-03-05","dishName":"국","wasteRate":0.6}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "GET", "/api/leftover/daily?date=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	daily := decode(t, rec)
	assert.InDelta(t, 0.3, daily["leftoverRate"], 1e-9)
	assert.Len(t, daily["dishes"], 2)

	rec = s.do(t, "GET", "/api/leftover/weekly?date=2024-03-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	weekly := decode(t, rec)
	assert.Equal(t, "2024-03-04", weekly["from"])
	assert.Equal(t, "2024-03-10", weekly["to"])
	assert.InDelta(t, 0.4, weekly["leftoverRate"], 1e-9)
	assert.Len(t, weekly["days"], 7)

	rec = s.do(t, "GET", "/api/leftover/monthly?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	monthly := decode(t, rec)
	assert.EqualValues(t, 3, monthly["month"])
	assert.Len(t, monthly["days"], 31)

	rec = s.do(t, "GET", "/api/leftover/monthly?year=2024&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/leftover/ranking?date=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"밥","잔반률":40},{"name":"김치찌개","잔반률":20,"선호도":80}]`, rec.Body.String())

	rec = s.do(t, "GET", "/api/leftover/preference?from=2024-03-04&to=2024-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"김치찌개","선호도":80}]`, rec.Body.String())

	rec = s.do(t, "GET", "/api/leftover/ranking?from=2024-03-10&to=2024-03-04", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/leftover/range?from=2024-03-04&to=2024-03-05", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ranged := decode(t, rec)
	assert.Equal(t, "range", ranged["scope"])
	assert.InDelta(t, 0.4, ranged["leftoverRate"], 1e-9)
	assert.Len(t, ranged["days"], 2)
	assert.Len(t, ranged["dishes"], 3)
}

func TestRouter_MenuPublishAndSatisfaction(t *testing.T) {
	s := newTestServer(t, 100, 100)

	rec := s.do(t, "POST", "/api/menu", `{"date":"2024-03-04","menuName":"밥, 김치찌개"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	published := decode(t, rec)
	assert.EqualValues(t, 20240304, published["menuId"])

	// identical republish is a no-op; different content conflicts
	rec = s.do(t, "POST", "/api/menu", `{"date":"2024-03-04","menuName":"밥, 김치찌개"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, "POST", "/api/menu", `{"date":"2024-03-04","menuName":"빵"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, "POST", "/api/menu", `{"menuName":"빵"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/menu?from=2024-03-04&to=2024-03-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cal query.MenuResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cal))
	require.Len(t, cal.Days, 2)
	assert.Equal(t, "월요일", cal.Days[0].DayOfWeekName)
	require.Len(t, cal.Days[0].Menu, 1)
	assert.Equal(t, []string{"밥", "김치찌개"}, cal.Days[0].Menu[0].Menu)

	rec = s.do(t, "GET", "/api/menu/nutrient?date=2024-03-04&dish=떡볶이", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "POST", "/api/satisfaction/vote", `{"menuId":20240304,"voterId":"a","score":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "4.0", decode(t, rec)["averageSatisfaction"])

	rec = s.do(t, "POST", "/api/satisfaction/vote", `{"menuId":20240305,"voterId":"a","score":4}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, "POST", "/api/satisfaction/vote", `{"menuId":20240304,"voterId":"a","score":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/satisfaction/20240304", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["totalVotes"])
}

func TestRouter_Students(t *testing.T) {
	s := newTestServer(t, 100, 100)

	rec := s.do(t, "GET", "/api/students?grade=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list query.StudentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Students, 2)

	rec = s.do(t, "GET", "/api/students?grade=one", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "PUT", "/api/students/1/physical", `{"height":160,"weight":51.2,"measuredOn":"2024-03-04"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode(t, rec)
	assert.InDelta(t, 20.0, detail["bmi"], 0.01)
	assert.Equal(t, "싸피초등학교", detail["schoolName"])

	rec = s.do(t, "PUT", "/api/students/1/physical", `{"height":-1,"weight":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/students/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_StudentImport(t *testing.T) {
	s := newTestServer(t, 100, 100)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"학번", "이름", "학년", "반", "번호", "성별"},
		{3, "박지호", 2, 1, 1, "M"},
		{4, "최유나", 2, 1, 2, "F"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rec := s.do(t, "POST", "/api/students/import", buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode(t, rec)["imported"])

	students, err := s.roster.List(context.Background(), contracts.RosterFilter{Grade: 2})
	require.NoError(t, err)
	assert.Len(t, students, 2)

	rec = s.do(t, "POST", "/api/students/import", "not a workbook")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Inventory(t *testing.T) {
	s := newTestServer(t, 100, 100)

	rec := s.do(t, "POST", "/api/inventory", `{"date":"2024-03-04","productName":"쌀","supplier":"농협","price":"52000","orderedQuantity":1,"usedQuantity":0.5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["id"])

	rec = s.do(t, "POST", "/api/inventory", `{"date":"2024-03-04","productName":"","price":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/inventory?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode(t, rec)
	assert.Equal(t, "52000", report["total"])
	assert.Len(t, report["items"], 1)
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t, 100, 100)

	rec := s.do(t, "GET", "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "404"))
}
