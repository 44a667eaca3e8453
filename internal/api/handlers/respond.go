package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondFailure maps domain errors to status codes; anything else is a 500
func respondFailure(w http.ResponseWriter, log *logger.Logger, err error, action string) {
	switch {
	case contracts.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case contracts.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case contracts.IsConflict(err):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("Failed to " + action)
		respondError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return &contracts.ValidationError{Message: "invalid request body"}
	}
	return nil
}

// Clock supplies "today" in the school's timezone
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Today returns the current service date
func (c Clock) Today() time.Time {
	return contracts.DateOf(c.now().In(c.location()))
}

// dateParam parses a YYYY-MM-DD query parameter, defaulting to today
func (c Clock) dateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return c.Today(), nil
	}
	d, err := contracts.ParseDate(v)
	if err != nil {
		return time.Time{}, &contracts.ValidationError{Field: name, Message: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// rangeParams reads from/to, defaulting to the week containing date (or today)
func (c Clock) rangeParams(r *http.Request) (contracts.DateRange, error) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		d, err := c.dateParam(r, "date")
		if err != nil {
			return contracts.DateRange{}, err
		}
		return contracts.WeekOf(d), nil
	}

	from, err := c.dateParam(r, "from")
	if err != nil {
		return contracts.DateRange{}, err
	}
	to := from
	if q.Get("to") != "" {
		if to, err = c.dateParam(r, "to"); err != nil {
			return contracts.DateRange{}, err
		}
	}
	return contracts.NewDateRange(from, to)
}

// monthParams reads year/month, defaulting to the current month
func (c Clock) monthParams(r *http.Request) (int, time.Month, error) {
	today := c.Today()
	year, month := today.Year(), today.Month()

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, &contracts.ValidationError{Field: "year", Message: "must be a number"}
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, &contracts.ValidationError{Field: "month", Message: "must be 1-12"}
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &contracts.ValidationError{Field: name, Message: "must be a number"}
	}
	return n, nil
}
