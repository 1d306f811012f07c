package usecase

import (
	"fmt"

	"httparity/internal/domain"
)

// ValidatePauseResume checks one side's structured pause/resume trace
// against the transfer contract: no bytes may be delivered or written while
// the transfer is paused, and the trace must form a single
// start → pause_req → pause_effective → resume_req → finished cycle.
// bodyLen is the externally observed response body length.
//
// All violations are collected; validation never short-circuits, so one run
// reports the complete set of broken rules for the side.
func ValidatePauseResume(side string, pr domain.PauseResumeStrict, bodyLen int64) []string {
	tag := func(format string, args ...any) string {
		return fmt.Sprintf("pause_resume_strict[%s]: %s", side, fmt.Sprintf(format, args...))
	}

	events := pr.Events
	if len(events) == 0 {
		return []string{tag("empty event list")}
	}

	var diffs []string
	for i, e := range events {
		if i > 0 {
			prev := events[i-1]
			if e.Seq <= prev.Seq {
				diffs = append(diffs, tag("events[%d]: seq not strictly increasing: %d <= %d", i, e.Seq, prev.Seq))
			}
			if e.TUS < prev.TUS {
				diffs = append(diffs, tag("events[%d]: t_us decreased: %d < %d", i, e.TUS, prev.TUS))
			}
			if e.BytesDeliveredTotal < prev.BytesDeliveredTotal {
				diffs = append(diffs, tag("events[%d]: bytes_delivered_total decreased: %d < %d", i, e.BytesDeliveredTotal, prev.BytesDeliveredTotal))
			}
			if e.BytesWrittenTotal < prev.BytesWrittenTotal {
				diffs = append(diffs, tag("events[%d]: bytes_written_total decreased: %d < %d", i, e.BytesWrittenTotal, prev.BytesWrittenTotal))
			}
		}
		if e.TUS < 0 {
			diffs = append(diffs, tag("events[%d]: negative t_us: %d", i, e.TUS))
		}
		if e.BytesDeliveredTotal < 0 {
			diffs = append(diffs, tag("events[%d]: negative bytes_delivered_total: %d", i, e.BytesDeliveredTotal))
		}
		if e.BytesWrittenTotal < 0 {
			diffs = append(diffs, tag("events[%d]: negative bytes_written_total: %d", i, e.BytesWrittenTotal))
		}
	}

	// Each boundary event exactly once.
	index := map[string]int{}
	count := map[string]int{}
	for i, e := range events {
		if _, seen := count[e.Type]; !seen {
			index[e.Type] = i
		}
		count[e.Type]++
	}
	for _, typ := range []string{
		domain.EventStart,
		domain.EventPauseReq,
		domain.EventPauseEffective,
		domain.EventResumeReq,
		domain.EventFinished,
	} {
		if count[typ] != 1 {
			diffs = append(diffs, tag("event %s occurred %d times (want 1)", typ, count[typ]))
		}
	}

	pauseReq, hasPauseReq := index[domain.EventPauseReq]
	pauseEff, hasPauseEff := index[domain.EventPauseEffective]
	resumeReq, hasResumeReq := index[domain.EventResumeReq]
	finished, hasFinished := index[domain.EventFinished]

	if hasPauseReq && hasPauseEff && pauseEff <= pauseReq {
		diffs = append(diffs, tag("pause_effective at index %d not after pause_req at index %d", pauseEff, pauseReq))
	}
	if hasPauseEff && hasResumeReq && resumeReq <= pauseEff {
		diffs = append(diffs, tag("resume_req at index %d not after pause_effective at index %d", resumeReq, pauseEff))
	}
	if hasResumeReq && hasFinished && finished <= resumeReq {
		diffs = append(diffs, tag("finished at index %d not after resume_req at index %d", finished, resumeReq))
	}

	// Zero-delta window: both counters frozen between pause_effective and
	// resume_req. A one-off flush between pause_req and pause_effective is
	// allowed; it is absorbed by the pause_effective boundary.
	if hasPauseEff && hasResumeReq && pauseEff < resumeReq {
		pe, rr := events[pauseEff], events[resumeReq]
		if pe.BytesDeliveredTotal != rr.BytesDeliveredTotal {
			diffs = append(diffs, tag("bytes_delivered_total changed during pause window: %d != %d", pe.BytesDeliveredTotal, rr.BytesDeliveredTotal))
		}
		if pe.BytesWrittenTotal != rr.BytesWrittenTotal {
			diffs = append(diffs, tag("bytes_written_total changed during pause window: %d != %d", pe.BytesWrittenTotal, rr.BytesWrittenTotal))
		}
	}

	if hasFinished {
		if got := events[finished].BytesWrittenTotal; got != bodyLen {
			diffs = append(diffs, tag("bytes_written_total at finished != response body length: %d != %d", got, bodyLen))
		}
	}

	return diffs
}
