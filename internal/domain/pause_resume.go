package domain

// Pause/resume event types. The five named events must each occur exactly
// once in a strict trace; any other type may repeat.
const (
	EventStart          = "start"
	EventPauseReq       = "pause_req"
	EventPauseEffective = "pause_effective"
	EventResumeReq      = "resume_req"
	EventFinished       = "finished"
)

// PauseResumeEvent is one entry of a structured pause/resume trace.
type PauseResumeEvent struct {
	Seq                 int64  `json:"seq"`
	TUS                 int64  `json:"t_us"`
	Type                string `json:"type"`
	BytesDeliveredTotal int64  `json:"bytes_delivered_total"`
	BytesWrittenTotal   int64  `json:"bytes_written_total"`
}

// PauseResumeStrict is the strict, structured pause/resume contract section.
// Scenario parameters are compared across sides; the event trace is
// validated per side by the contract validator.
type PauseResumeStrict struct {
	Schema        string             `json:"schema"`
	Proto         Protocol           `json:"proto"`
	PauseOffset   int64              `json:"pause_offset"`
	ResumeDelayMS int64              `json:"resume_delay_ms"`
	Events        []PauseResumeEvent `json:"events"`
}

// PauseResume is the legacy weak pause/resume section: event presence and
// counts only, no byte-window assertions. Wall-clock instrumentation is too
// racy for anything stronger; new cases should emit the strict trace.
type PauseResume struct {
	PauseOffset int64    `json:"pause_offset"`
	PauseCount  int      `json:"pause_count"`
	ResumeCount int      `json:"resume_count"`
	EventSeq    []string `json:"event_seq"`
}
