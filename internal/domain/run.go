package domain

import "time"

// RunKind names a kind of core run; two runs of one kind never overlap.
type RunKind string

const (
	RunIngestion      RunKind = "ingestion"
	RunDispatchDaily  RunKind = "dispatch-daily"
	RunDispatchWeekly RunKind = "dispatch-weekly"
)

// DispatchKind maps an alert frequency to its run kind.
func DispatchKind(f Frequency) RunKind {
	if f == FrequencyWeekly {
		return RunDispatchWeekly
	}
	return RunDispatchDaily
}

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunSkipped   RunStatus = "skipped"
)

// RunCounts aggregates what a run observed and changed.
type RunCounts struct {
	SourcesRun    int `json:"sources_run"`
	SourcesFailed int `json:"sources_failed"`
	Fetched       int `json:"fetched"`
	Rejected      int `json:"rejected"`
	SyntheticIDs  int `json:"synthetic_ids"`
	Unique        int `json:"unique"`
	Geocoded      int `json:"geocoded"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Failed        int `json:"failed"`
	Retired       int `json:"retired"`

	Users       int `json:"users"`
	UsersFailed int `json:"users_failed"`
	Searches    int `json:"searches"`
	Sent        int `json:"sent"`
	SendFailed  int `json:"send_failed"`
}

// RunOutcome is handed back to the scheduling layer after every run.
type RunOutcome struct {
	ID        string        `json:"id"`
	Kind      RunKind       `json:"kind"`
	Status    RunStatus     `json:"status"`
	Phase     string        `json:"phase,omitempty"`
	Counts    RunCounts     `json:"counts"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
}

// Message is a rendered notification ready for a delivery provider.
type Message struct {
	Subject string
	HTML    string
	Text    string
}
