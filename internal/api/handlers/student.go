package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/query"
	"github.com/ssafy/baperang/backend/internal/roster"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// maxRosterUpload bounds roster workbook uploads
const maxRosterUpload = 10 << 20

// StudentHandler handles roster endpoints
// ⭐ SSOT: 학생 API 핸들러는 이 구조체에서만
type StudentHandler struct {
	roster *roster.Service
	facade *query.Facade
	clock  Clock
	logger *logger.Logger
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(rosterSvc *roster.Service, facade *query.Facade, clock Clock, log *logger.Logger) *StudentHandler {
	return &StudentHandler{roster: rosterSvc, facade: facade, clock: clock, logger: log}
}

// List returns the roster
// GET /api/students?grade=&classNum=
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	grade, err := intQuery(r, "grade")
	if err != nil {
		respondFailure(w, h.logger, err, "list students")
		return
	}
	classNum, err := intQuery(r, "classNum")
	if err != nil {
		respondFailure(w, h.logger, err, "list students")
		return
	}

	resp, err := h.facade.Students(r.Context(), contracts.RosterFilter{Grade: grade, ClassNum: classNum})
	if err != nil {
		respondFailure(w, h.logger, err, "list students")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Get returns one student with the weekly leftover average
// GET /api/students/{id}?date=
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	if err != nil {
		respondFailure(w, h.logger, err, "get student")
		return
	}
	date, err := h.clock.dateParam(r, "date")
	if err != nil {
		respondFailure(w, h.logger, err, "get student")
		return
	}

	resp, err := h.facade.StudentDetail(r.Context(), id, date)
	if err != nil {
		respondFailure(w, h.logger, err, "get student")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// PhysicalRequest carries a height/weight measurement
type PhysicalRequest struct {
	Height     float64 `json:"height"`
	Weight     float64 `json:"weight"`
	MeasuredOn string  `json:"measuredOn"`
}

// UpdatePhysical records height and weight
// PUT /api/students/{id}/physical
func (h *StudentHandler) UpdatePhysical(w http.ResponseWriter, r *http.Request) {
	id, err := studentID(r)
	if err != nil {
		respondFailure(w, h.logger, err, "update student")
		return
	}

	var req PhysicalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, h.logger, err, "update student")
		return
	}

	upd := contracts.PhysicalUpdate{Height: req.Height, Weight: req.Weight}
	if req.MeasuredOn != "" {
		if upd.MeasuredOn, err = contracts.ParseDate(req.MeasuredOn); err != nil {
			respondFailure(w, h.logger, err, "update student")
			return
		}
	} else {
		upd.MeasuredOn = h.clock.Today()
	}

	if err := h.roster.UpdatePhysical(r.Context(), id, upd); err != nil {
		respondFailure(w, h.logger, err, "update student")
		return
	}

	resp, err := h.facade.StudentDetail(r.Context(), id, upd.MeasuredOn)
	if err != nil {
		respondFailure(w, h.logger, err, "get student")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Import loads a roster workbook (.xlsx) from the request body or a
// multipart "file" field
// POST /api/students/import
func (h *StudentHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRosterUpload)

	body := r.Body
	if err := r.ParseMultipartForm(maxRosterUpload); err == nil {
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "multipart upload needs a \"file\" field")
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.roster.ImportXLSX(r.Context(), body)
	if err != nil {
		respondFailure(w, h.logger, err, "import roster")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func studentID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, &contracts.ValidationError{Field: "id", Message: "invalid student id"}
	}
	return id, nil
}
