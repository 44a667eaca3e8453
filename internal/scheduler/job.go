package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// historyLimit bounds the results kept per job
const historyLimit = 100

// Job is one scheduled unit of work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a cron expression with seconds, e.g. "0 0 14 * * 1-5"
	Schedule() string
}

// JobResult is the outcome of one run. From/To name the service dates the
// run worked on and Items how many things it touched (menus published,
// cache entries swept); both are empty when the job reports nothing.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Items     int           `json:"items,omitempty"`
}

// Dates returns the reported date range, if any
func (r JobResult) Dates() (contracts.DateRange, bool) {
	if r.From == "" {
		return contracts.DateRange{}, false
	}
	from, err := contracts.ParseDate(r.From)
	if err != nil {
		return contracts.DateRange{}, false
	}
	to, err := contracts.ParseDate(r.To)
	if err != nil {
		return contracts.DateRange{}, false
	}
	return contracts.DateRange{From: from, To: to}, true
}

// runReport collects what a job reports while it runs
type runReport struct {
	mu    sync.Mutex
	dates *contracts.DateRange
	items int
}

type reportKey struct{}

func withReport(ctx context.Context, r *runReport) context.Context {
	return context.WithValue(ctx, reportKey{}, r)
}

// ReportDates records the service dates the running job worked on.
// Repeated calls widen the range. Outside a scheduler run it does nothing.
func ReportDates(ctx context.Context, dr contracts.DateRange) {
	r, ok := ctx.Value(reportKey{}).(*runReport)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dates == nil {
		r.dates = &dr
		return
	}
	if dr.From.Before(r.dates.From) {
		r.dates.From = dr.From
	}
	if dr.To.After(r.dates.To) {
		r.dates.To = dr.To
	}
}

// ReportItems adds n to the running job's item count
func ReportItems(ctx context.Context, n int) {
	r, ok := ctx.Value(reportKey{}).(*runReport)
	if !ok {
		return
	}
	r.mu.Lock()
	r.items += n
	r.mu.Unlock()
}

func (r *runReport) apply(result *JobResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dates != nil {
		result.From = contracts.FormatDate(r.dates.From)
		result.To = contracts.FormatDate(r.dates.To)
	}
	result.Items = r.items
}

// JobHistory keeps the latest results of one job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond historyLimit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// GetLatestResults returns a copy of the latest n results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	out := make([]JobResult, n)
	copy(out, h.Results[len(h.Results)-n:])
	return out
}

// GetFailedResults returns all failed results
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}

	successCount := 0
	for _, result := range h.Results {
		if result.Success {
			successCount++
		}
	}
	return float64(successCount) / float64(len(h.Results))
}
