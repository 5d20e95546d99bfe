package harness

// TraceEvent is one journaled firing.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Rule     string `json:"rule"`
	Priority int    `json:"priority"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Engine is the kind of engine that ran.
	Engine string `json:"engine"`

	// Fired lists fired rule names in firing order.
	Fired []string `json:"fired"`

	// Passes is the number of passes the engine started.
	Passes int `json:"passes"`

	// Facts holds the final fact values.
	Facts map[string]any `json:"facts"`

	// Trace holds the journal's firings, successful and failed.
	Trace []TraceEvent `json:"trace"`

	// RunError is the engine's error message, empty if the run succeeded.
	RunError string `json:"run_error,omitempty"`

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Fired:  []string{},
		Facts:  map[string]any{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
