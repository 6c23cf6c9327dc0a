package model

import "time"

// RunMode names the candidate source of a discovery run.
type RunMode string

const (
	RunModeTopic   RunMode = "topic"
	RunModePopular RunMode = "popular"
	RunModeManual  RunMode = "manual"
)

// RunState is the phase a discovery run is currently in.
type RunState string

const (
	RunStateIdle        RunState = "idle"
	RunStateGenerating  RunState = "generating"
	RunStateVerifying   RunState = "verifying"
	RunStateClassifying RunState = "classifying"
	RunStatePersisting  RunState = "persisting"
	RunStateReporting   RunState = "reporting"
)

// RunSummary reports the outcome of a single discovery run. It is never persisted.
type RunSummary struct {
	RunID      string        `json:"runId"`
	Mode       RunMode       `json:"mode"`
	Category   string        `json:"category,omitempty"`
	SourceTag  SourceTag     `json:"sourceTag"`
	Generated  int           `json:"generated"`
	Tested     int           `json:"tested"`
	Verified   int           `json:"verified"`
	Stored     int           `json:"stored"`
	Failed     int           `json:"failed"`
	Cancelled  bool          `json:"cancelled"`
	Paced      time.Duration `json:"-"`
	Elapsed    time.Duration `json:"-"`
	PacedMs    int64         `json:"pacedMs"`
	ElapsedMs  int64         `json:"elapsedMs"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// RunProgress is emitted periodically while a run is in flight.
type RunProgress struct {
	RunID    string `json:"runId"`
	Tested   int    `json:"tested"`
	Verified int    `json:"verified"`
	Total    int    `json:"total"`
}

// RunStatus is a point-in-time snapshot of the discovery engine.
type RunStatus struct {
	State   RunState     `json:"state"`
	Current *RunProgress `json:"current,omitempty"`
	LastRun *RunSummary  `json:"lastRun,omitempty"`
	LastErr string       `json:"lastError,omitempty"`
}
