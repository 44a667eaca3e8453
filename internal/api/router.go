package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ssafy/baperang/backend/internal/api/handlers"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// Handlers groups every endpoint handler the router mounts
type Handlers struct {
	Students     *handlers.StudentHandler
	Menu         *handlers.MenuHandler
	NFC          *handlers.NFCHandler
	Leftover     *handlers.LeftoverHandler
	Satisfaction *handlers.SatisfactionHandler
	Inventory    *handlers.InventoryHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Roster
	api.HandleFunc("/students", h.Students.List).Methods("GET")
	api.HandleFunc("/students/import", h.Students.Import).Methods("POST")
	api.HandleFunc("/students/{id:[0-9]+}", h.Students.Get).Methods("GET")
	api.HandleFunc("/students/{id:[0-9]+}/physical", h.Students.UpdatePhysical).Methods("PUT")

	// Menu
	api.HandleFunc("/menu", h.Menu.GetMenu).Methods("GET")
	api.HandleFunc("/menu", h.Menu.Publish).Methods("POST")
	api.HandleFunc("/menu/nutrient", h.Menu.GetNutrient).Methods("GET")

	// NFC tagging
	api.HandleFunc("/nfc/tag", h.NFC.Tag).Methods("POST")
	api.HandleFunc("/nfc/students", h.NFC.Students).Methods("GET")

	// Leftover & completion
	api.HandleFunc("/leftover", h.Leftover.Upsert).Methods("POST")
	api.HandleFunc("/leftover/daily", h.Leftover.GetDaily).Methods("GET")
	api.HandleFunc("/leftover/weekly", h.Leftover.GetWeekly).Methods("GET")
	api.HandleFunc("/leftover/monthly", h.Leftover.GetMonthly).Methods("GET")
	api.HandleFunc("/leftover/ranking", h.Leftover.GetRanking).Methods("GET")
	api.HandleFunc("/leftover/preference", h.Leftover.GetPreference).Methods("GET")
	api.HandleFunc("/leftover/range", h.Leftover.GetRange).Methods("GET")
	api.HandleFunc("/completion", h.Leftover.GetCompletion).Methods("GET")

	// Satisfaction
	api.HandleFunc("/satisfaction/vote", h.Satisfaction.Vote).Methods("POST")
	api.HandleFunc("/satisfaction/stream", h.Satisfaction.Stream).Methods("GET")
	api.HandleFunc("/satisfaction/{menuId:[0-9]+}", h.Satisfaction.GetSummary).Methods("GET")

	// Inventory
	api.HandleFunc("/inventory", h.Inventory.Record).Methods("POST")
	api.HandleFunc("/inventory", h.Inventory.GetMonth).Methods("GET")

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "baperang-api",
	})
}

// requestIDMiddleware echoes the caller's request ID or assigns a new one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder keeps the response status for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade pass through the recorder
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"request_id": r.Header.Get(RequestIDHeader),
				"duration":   time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
