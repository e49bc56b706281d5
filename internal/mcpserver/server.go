// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the normalized study log to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/studylog/internal/aggregate"
	"github.com/starford/studylog/internal/apperr"
	"github.com/starford/studylog/internal/calendar"
	"github.com/starford/studylog/internal/logservice"
	"github.com/starford/studylog/internal/site"
)

// Server wraps the MCP server with study log tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *logservice.Service
	today func() string
}

// New creates a new MCP server with all tools registered. today is called
// once per request that depends on the current date.
func New(svc *logservice.Service, today func() string) *Server {
	s := &Server{svc: svc, today: today}

	s.mcp = server.NewMCPServer(
		"Study Log",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_day",
		mcp.WithDescription("Read the normalized log of one day: the lesson subjects done (toshinToday) and what was done (details)."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.getDay)

	s.mcp.AddTool(mcp.NewTool("get_week",
		mcp.WithDescription("Summarize a Monday-first week: its seven days, the number of days with lessons, "+
			"the number of detail entries and the most frequent subjects."),
		mcp.WithNumber("offset", mcp.Description("Weeks before the current week (0 = this week)")),
	), s.getWeek)

	s.mcp.AddTool(mcp.NewTool("list_months",
		mcp.WithDescription("List the months that have logs, with the number of recorded days in each."),
	), s.listMonths)

	s.mcp.AddTool(mcp.NewTool("validate_logs",
		mcp.WithDescription("Run the strict log validator and return every problem found."),
	), s.validateLogs)

	s.mcp.AddTool(mcp.NewTool("get_log_format",
		mcp.WithDescription("Returns the log file format contract. "+
			"Call this before writing a log file to ensure correct structure."),
	), s.getLogFormat)

	s.mcp.AddResource(
		mcp.NewResource(LogFormatURI, "Log Format Contract",
			mcp.WithResourceDescription("On-disk JSON format of a daily study log."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLogFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !calendar.IsValidDate(date) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date: %s", date)), nil
	}
	rec, err := s.svc.Record(ctx, date)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no log for %s", date)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rec)
}

type weekResult struct {
	Today   string                `json:"today"`
	Offset  int                   `json:"offset"`
	Range   string                `json:"range"`
	Summary aggregate.WeekSummary `json:"summary"`
	Days    []dayResult           `json:"days"`
}

type dayResult struct {
	Date        string   `json:"date"`
	Weekday     string   `json:"weekday"`
	ToshinToday []string `json:"toshinToday"`
	Details     []string `json:"details"`
}

func (s *Server) getWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		return mcp.NewToolResultError("offset must be >= 0"), nil
	}
	records, _, err := s.svc.Records(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	today := s.today()
	ctrl, err := site.NewWeekController(today, aggregate.Index(records), offset)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view := ctrl.View()

	res := weekResult{Today: today, Offset: view.Offset, Range: view.Range(), Summary: view.Summary}
	for _, d := range view.Days {
		res.Days = append(res.Days, dayResult{
			Date:        d.Date,
			Weekday:     d.Weekday,
			ToshinToday: d.ToshinToday,
			Details:     d.Details,
		})
	}
	return jsonResult(res)
}

type monthResult struct {
	Month string `json:"month"`
	Days  int    `json:"days"`
}

func (s *Server) listMonths(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, _, err := s.svc.Records(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	counts := make(map[string]int)
	for _, r := range records {
		counts[calendar.MonthOf(r.Date)]++
	}
	months := site.Months(s.today(), records)
	out := make([]monthResult, 0, len(months))
	for _, m := range months {
		out = append(out, monthResult{Month: m, Days: counts[m]})
	}
	return jsonResult(out)
}

func (s *Server) validateLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Validate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if report.Err() == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Validation passed: %d log file(s)", report.Files)), nil
	}
	var b strings.Builder
	b.WriteString("Validation failed:\n")
	for _, issue := range report.Issues {
		b.WriteString("- ")
		b.WriteString(issue.Message)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d error(s) in %d log file(s)", len(report.Issues), report.Files)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getLogFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LogFormatContract), nil
}

func (s *Server) readLogFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LogFormatURI,
			MIMEType: "text/markdown",
			Text:     LogFormatContract,
		},
	}, nil
}
