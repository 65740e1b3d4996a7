package scheduler

import (
	"context"
	"time"
)

// Job is one cron-driven step of the nightly ingest → screen pipeline
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Schedule is a cron expression with seconds, e.g. "0 30 3 * * 1-5"
	Schedule() string

	// Run returns the per-company outcome. Company-level failures belong in
	// the report; an error means the run itself failed and is retried.
	Run(ctx context.Context) (RunReport, error)
}

// RunReport counts what one job run did to the company universe
type RunReport struct {
	Companies    int    `json:"companies"`
	Failed       int    `json:"failed"`
	Disqualified int    `json:"disqualified,omitempty"`
	RunID        string `json:"run_id,omitempty"` // 배치 run id (screening)
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Report    RunReport     `json:"report"`
}

// MaxHistory is the number of results kept per job
const MaxHistory = 100

// JobHistory keeps the latest results of one job, oldest first.
// Scheduler 의 mu 로 보호됨
type JobHistory struct {
	results []JobResult
}

func (h *JobHistory) record(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > MaxHistory {
		h.results = append([]JobResult(nil), h.results[len(h.results)-MaxHistory:]...)
	}
}

// Results returns a copy of the kept results
func (h *JobHistory) Results() []JobResult {
	return append([]JobResult(nil), h.results...)
}

// Last returns the most recent result
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.results) == 0 {
		return JobResult{}, false
	}
	return h.results[len(h.results)-1], true
}

// LastWith returns the most recent successful (or failed) result
func (h *JobHistory) LastWith(success bool) (JobResult, bool) {
	for i := len(h.results) - 1; i >= 0; i-- {
		if h.results[i].Success == success {
			return h.results[i], true
		}
	}
	return JobResult{}, false
}

// Failures counts failed runs
func (h *JobHistory) Failures() int {
	n := 0
	for _, r := range h.results {
		if !r.Success {
			n++
		}
	}
	return n
}

// SuccessRate returns successful runs / kept runs (0 when empty)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.results) == 0 {
		return 0
	}
	return float64(len(h.results)-h.Failures()) / float64(len(h.results))
}
