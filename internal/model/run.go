package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one end-to-end execution of the pipeline over a year set.
type Run struct {
	ID        string     `json:"id"`
	Years     []int      `json:"years"`
	Status    RunStatus  `json:"status"`
	Summary   *RunResult `json:"summary,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the machine-readable counts of a finished run.
type RunResult struct {
	RawRows      int             `json:"raw_rows"`
	CleanRows    int             `json:"clean_rows"`
	Provinces    int             `json:"provinces"`
	MissingYears []int           `json:"missing_years,omitempty"`
	Dropped      map[string]int  `json:"dropped,omitempty"`
	Unexpected   []string        `json:"unexpected,omitempty"`
	Pending      []string        `json:"pending,omitempty"`
	MatchRate    map[int]float64 `json:"match_rate,omitempty"`
}
