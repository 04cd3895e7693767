// Package mcp provides an MCP (Model Context Protocol) server for carprun.
package mcp

// CommandInput defines the input for the carprun_command tool.
type CommandInput struct {
	Tend      float64 `json:"tend,omitempty" jsonschema:"Simulation duration in ms (default: 20)"`
	NP        int     `json:"np,omitempty" jsonschema:"Number of processes (default: configured np)"`
	Flavor    string  `json:"flavor,omitempty" jsonschema:"Solver backend: petsc, pt, boomeramg, ginkgo or direct"`
	Visualize bool    `json:"visualize,omitempty" jsonschema:"Request intracellular grid output for meshalyzer"`
	ID        string  `json:"id,omitempty" jsonschema:"Job ID override (letters, digits, '-', '_' and '.')"`
	Mesh      string  `json:"mesh,omitempty" jsonschema:"Mesh base name overriding the configured mesh"`
}

// CommandOutput defines the output for the carprun_command tool.
type CommandOutput struct {
	JobID    string    `json:"job_id" jsonschema:"Name of the job output directory"`
	ParFile  string    `json:"par_file" jsonschema:"Resolved parameter file"`
	Mesh     string    `json:"mesh" jsonschema:"Mesh base name passed to the simulator"`
	Argv     []string  `json:"argv" jsonschema:"Full simulator argv including any MPI launcher"`
	Command  string    `json:"command" jsonschema:"Argv as a shell command line"`
	Findings []Finding `json:"findings,omitempty" jsonschema:"Options assigned more than once"`
}

// Finding is a repeated simulator option.
type Finding struct {
	Key     string `json:"key"`
	Count   int    `json:"count"`
	Applied string `json:"applied"`
	Message string `json:"message"`
}

// HistoryInput defines the input for the carprun_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return (default: 20)"`
}

// HistoryOutput defines the output for the carprun_history tool.
type HistoryOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"Recorded runs, most recent first"`
	Count int          `json:"count" jsonschema:"Number of runs returned"`
}

// RunSummary provides a list view of a recorded run.
type RunSummary struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	Tend       float64   `json:"tend"`
	NP         int       `json:"np"`
	Flavor     string    `json:"flavor"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  string    `json:"started_at"` // RFC 3339
	DurationMs int64     `json:"duration_ms"`
	ExitCode   int       `json:"exit_code"`
	Error      string    `json:"error,omitempty"`
}
