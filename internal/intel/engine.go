package intel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/scribe/internal/agent"
	"github.com/agenthands/scribe/internal/llm"
	"github.com/agenthands/scribe/internal/store"
)

// ErrNoEntries signals that the report window contained nothing to
// reflect on. Not an error condition for the caller, just an empty result.
var ErrNoEntries = errors.New("no entries to report on")

// Engine produces read-only reflection artifacts from the entry store.
// Reports are append-only and never updated.
type Engine struct {
	Store *store.Store
	LLM   llm.LLMClient
}

func NewEngine(st *store.Store, llmClient llm.LLMClient) *Engine {
	return &Engine{Store: st, LLM: llmClient}
}

// RecentEntries returns the agent's live entries created within the
// window, newest first.
func (e *Engine) RecentEntries(ctx context.Context, ag agent.Agent, window time.Duration) ([]store.Entry, error) {
	entries, err := e.Store.Entries(ctx, store.Filter{Agent: ag.Name, Type: ag.EntryType})
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-window)
	var recent []store.Entry
	for _, entry := range entries {
		if entry.CreatedAt.After(cutoff) {
			recent = append(recent, entry)
		}
	}
	return recent, nil
}

// GenerateReport renders the agent's template for the report type, calls
// the model and persists the result.
func (e *Engine) GenerateReport(ctx context.Context, ag agent.Agent, reportType string, entries []store.Entry) (store.Report, error) {
	template, ok := ag.Reports[reportType]
	if !ok {
		return store.Report{}, &store.ValidationError{
			Reason: fmt.Sprintf("agent %q has no report type %q", ag.Name, reportType),
		}
	}
	if len(entries) == 0 {
		return store.Report{}, ErrNoEntries
	}

	var lines []string
	for _, entry := range entries {
		for _, line := range entry.Lines {
			lines = append(lines, fmt.Sprintf("- [%s] %s", entry.CreatedAt.Format("2006-01-02"), line))
		}
	}
	// The %s placeholder is substituted literally; operator-authored
	// templates may contain other % characters.
	userContent := strings.ReplaceAll(template, "%s", strings.Join(lines, "\n"))

	prompt := llm.ComposePrompt(ag.SystemPrompt, ag.DeveloperPrompt, "", userContent)
	output, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return store.Report{}, fmt.Errorf("generate %s report: %w", reportType, err)
	}

	return e.Store.SaveReport(ctx, store.Report{
		Agent:   ag.Name,
		Type:    reportType,
		Content: strings.TrimSpace(output),
	})
}
