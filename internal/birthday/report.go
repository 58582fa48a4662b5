package birthday

import (
	"fmt"
	"strings"
	"time"
)

// Report accumulates the outcome of one scan. It is created fresh for every run
// and never persisted.
type Report struct {
	RunID      string        `json:"run_id"`
	TargetDate time.Time     `json:"target_date"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
}

// Total is the number of dispatch attempts, i.e. matched birthday users.
func (r Report) Total() int {
	return r.Succeeded + r.Failed
}

// DurationSeconds is the elapsed scan time truncated to whole seconds.
func (r Report) DurationSeconds() int64 {
	return int64(r.Duration / time.Second)
}

func (r *Report) record(delivered bool) {
	if delivered {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// Subject is the one-line title used by mail and chat emitters.
func (r Report) Subject() string {
	return "Birthday wish SMS service report for " + FormatReportDate(r.TargetDate)
}

// Summary renders the human-readable breakdown sent to operators.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is completed in %d seconds with below details:\n", r.Subject(), r.DurationSeconds())
	fmt.Fprintf(&b, "  Total birthday users: %d\n", r.Total())
	fmt.Fprintf(&b, "  Messages sent successfully: %d\n", r.Succeeded)
	fmt.Fprintf(&b, "  Messages failed: %d.", r.Failed)
	return b.String()
}
