package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/carprun/internal/constants"
	"github.com/nvandessel/carprun/internal/driver"
	"github.com/nvandessel/carprun/internal/job"
	"github.com/nvandessel/carprun/internal/sanitize"
)

// defaultHistoryLimit is the number of runs returned when no limit is given.
const defaultHistoryLimit = 20

// registerTools registers all carprun MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        constants.CommandTool,
		Description: "Assemble the openCARP command line for the simple tissue example without running it",
	}, s.handleCommand)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        constants.HistoryTool,
		Description: "List recent simulator runs recorded by carprun",
	}, s.handleHistory)
}

func (s *Server) handleCommand(ctx context.Context, req *sdk.CallToolRequest, args CommandInput) (_ *sdk.CallToolResult, _ CommandOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(constants.CommandTool, start, retErr, auditParams(map[string]any{
			"tend": args.Tend, "np": args.NP, "flavor": args.Flavor,
			"visualize": args.Visualize, "id": args.ID, "mesh": args.Mesh,
		}))
	}()

	if err := s.toolLimiters.Check(constants.CommandTool); err != nil {
		return nil, CommandOutput{}, err
	}

	p := job.Params{
		Tend:      args.Tend,
		NP:        args.NP,
		Flavor:    args.Flavor,
		Visualize: args.Visualize,
		DryRun:    true,
	}
	if p.Tend == 0 {
		p.Tend = constants.DefaultTend
	}
	if p.NP == 0 {
		p.NP = s.config.Solver.NP
	}
	if p.NP < 1 {
		return nil, CommandOutput{}, fmt.Errorf("np must be at least 1, got %d", p.NP)
	}
	if p.Flavor == "" {
		p.Flavor = s.config.Solver.Flavor
	}
	if !constants.ValidFlavor(p.Flavor) {
		return nil, CommandOutput{}, fmt.Errorf("invalid flavor: %s", p.Flavor)
	}
	if args.ID != "" {
		p.ID = sanitize.JobID(args.ID)
		if p.ID == "" {
			return nil, CommandOutput{}, errors.New("id contains no usable characters")
		}
	}

	d := driver.New(s.config, s.root, nil)
	d.Now = s.now
	plan, err := d.Plan(p, args.Mesh)
	if err != nil {
		return nil, CommandOutput{}, fmt.Errorf("failed to assemble command: %w", err)
	}

	findings := make([]Finding, 0, len(plan.Findings))
	for _, f := range plan.Findings {
		findings = append(findings, Finding{
			Key:     f.Key,
			Count:   f.Count,
			Applied: f.Applied,
			Message: f.Message,
		})
	}

	return nil, CommandOutput{
		JobID:    plan.JobID,
		ParFile:  plan.ParFile,
		Mesh:     plan.Mesh,
		Argv:     plan.Argv,
		Command:  job.Quote(plan.Argv),
		Findings: findings,
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(constants.HistoryTool, start, retErr, auditParams(map[string]any{"limit": args.Limit}))
	}()

	if err := s.toolLimiters.Check(constants.HistoryTool); err != nil {
		return nil, HistoryOutput{}, err
	}

	if s.history == nil {
		return nil, HistoryOutput{}, errors.New("run history is disabled (history.enabled: false)")
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	runs, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, RunSummary{
			ID:         r.ID,
			JobID:      r.JobID,
			Tend:       r.Tend,
			NP:         r.NP,
			Flavor:     r.Flavor,
			DryRun:     r.DryRun,
			StartedAt:  r.StartedAt.Format(time.RFC3339Nano),
			DurationMs: r.Duration().Milliseconds(),
			ExitCode:   r.ExitCode,
			Error:      r.Error,
		})
	}

	return nil, HistoryOutput{
		Runs:  summaries,
		Count: len(summaries),
	}, nil
}
