package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Run describes a recorded pipeline run in a transport-friendly format.
type Run struct {
	RunID          string   `json:"runId"`
	SessionID      int64    `json:"sessionId"`
	InputKind      string   `json:"inputKind"`
	Source         string   `json:"source"`
	Resolution     int      `json:"resolution,omitempty"`
	SourceLanguage string   `json:"sourceLanguage,omitempty"`
	Status         string   `json:"status"`
	ErrorKind      string   `json:"errorKind,omitempty"`
	ErrorMessage   string   `json:"errorMessage,omitempty"`
	Tracks         []string `json:"tracks,omitempty"`
	StartedAt      string   `json:"startedAt,omitempty"`
	FinishedAt     string   `json:"finishedAt,omitempty"`
	DurationMillis int64    `json:"durationMs,omitempty"`
}

// RunListResponse wraps a collection of runs for API responses.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	Bot            string             `json:"bot,omitempty"`
	Backend        string             `json:"backend,omitempty"`
	StartedAt      string             `json:"startedAt,omitempty"`
	ActiveSessions int                `json:"activeSessions"`
	HistoryDBPath  string             `json:"historyDbPath"`
	LockFilePath   string             `json:"lockFilePath"`
	RunStats       map[string]int     `json:"runStats"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// ErrorResponse is written for any non-2xx API reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
