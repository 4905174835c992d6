// Package sla computes how long a job has been open, net of the time it spent
// frozen.
//
// Gross days round up (any started day counts), frozen days round down.
package sla

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/errx"
)

const day = 24 * time.Hour

// Result holds the day counts of one evaluation.
type Result struct {
	GrossDays  int `json:"gross_days"`
	FrozenDays int `json:"frozen_days"`
	NetDays    int `json:"net_days"`
}

// EvaluationEnd is the instant the clock is read at: ClosedAt for terminal
// jobs, asOf otherwise.
func EvaluationEnd(j *job.Job, asOf time.Time) time.Time {
	if j.Status.IsTerminal() && j.ClosedAt != nil {
		return *j.ClosedAt
	}
	return asOf
}

// Compute returns the SLA of j evaluated at asOf.
func Compute(j *job.Job, asOf time.Time) (Result, error) {
	if j.OpenedAt.IsZero() {
		return Result{}, ErrInvalidDate().
			WithDetail("job_id", j.ID.String()).
			WithDetail("field", "opened_at")
	}

	end := EvaluationEnd(j, asOf)

	gross := int(math.Ceil(float64(end.Sub(j.OpenedAt)) / float64(day)))
	if gross < 0 {
		gross = 0
	}

	var frozen time.Duration
	for i, fi := range j.FreezeHistory {
		if fi.StartDate.IsZero() {
			return Result{}, ErrInvalidDate().
				WithDetail("job_id", j.ID.String()).
				WithDetail("field", "freeze_history.start_date").
				WithDetail("index", i)
		}
		effectiveEnd := end
		if fi.EndDate != nil {
			effectiveEnd = *fi.EndDate
		}
		if d := effectiveEnd.Sub(fi.StartDate); d > 0 {
			frozen += d
		}
	}
	frozenDays := int(frozen / day)

	net := gross - frozenDays
	if net < 0 {
		net = 0
	}

	return Result{
		GrossDays:  gross,
		FrozenDays: frozenDays,
		NetDays:    net,
	}, nil
}

// ComputeNow evaluates open jobs at now and terminal jobs at their close date.
func ComputeNow(j *job.Job, now func() time.Time) (Result, error) {
	return Compute(j, now())
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates; plain dates
// are placed at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate().WithDetail("value", s)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("SLA")

var CodeInvalidDate = ErrRegistry.Register("INVALID_DATE", errx.TypeValidation, http.StatusBadRequest, "Invalid or missing date")

func ErrInvalidDate() *errx.Error { return ErrRegistry.New(CodeInvalidDate) }
