package intel

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/agenthands/scribe/internal/agent"
	"github.com/agenthands/scribe/internal/store"
)

// CategoryItem is one grouped bucket of entries with an optional
// generated summary.
type CategoryItem struct {
	Category    string    `json:"category"`
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"last_updated"`
	Content     string    `json:"content"`
}

type CategorySummary struct {
	SummaryType   string         `json:"summary_type"`
	CategoryLabel string         `json:"category_label"`
	Items         []CategoryItem `json:"items"`
}

// categoryLabel names the grouping axis after the agent's strongest
// subject requirement, mirroring the subject precedence order.
func categoryLabel(ag agent.Agent) string {
	switch {
	case ag.Policy.RequirePerson:
		return "Person"
	case ag.Policy.RequireProject:
		return "Project"
	case ag.Policy.RequireDomain:
		return "Domain"
	}
	return "Category"
}

// groupKey buckets an entry by its subject column, falling back to the
// first tag (the domain label) when the subject is empty.
func groupKey(e store.Entry) string {
	if e.Subject != "" {
		return e.Subject
	}
	if len(e.Tags) > 0 {
		return e.Tags[0]
	}
	return ""
}

// CategorySummary groups the agent's entries deterministically and, when
// summarize is set, generates a per-category summary. A failed summary
// leaves the item's content empty rather than failing the whole report.
func (e *Engine) CategorySummary(ctx context.Context, ag agent.Agent, summarize bool) (CategorySummary, error) {
	entries, err := e.Store.Entries(ctx, store.Filter{Agent: ag.Name, Type: ag.EntryType})
	if err != nil {
		return CategorySummary{}, err
	}

	groups := make(map[string][]store.Entry)
	for _, entry := range entries {
		if key := groupKey(entry); key != "" {
			groups[key] = append(groups[key], entry)
		}
	}

	items := make([]CategoryItem, 0, len(groups))
	for category, grouped := range groups {
		item := CategoryItem{Category: category, Count: len(grouped)}
		var texts []string
		for _, entry := range grouped {
			texts = append(texts, entry.Lines...)
			if entry.UpdatedAt.After(item.LastUpdated) {
				item.LastUpdated = entry.UpdatedAt
			}
		}

		if summarize && len(texts) > 0 {
			summary, err := e.summarizeCategory(ctx, category, texts)
			if err != nil {
				log.Printf("category summary for %q failed: %v", category, err)
			} else {
				item.Content = summary
			}
		}

		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].LastUpdated.After(items[j].LastUpdated)
	})

	return CategorySummary{
		SummaryType:   "category_summary",
		CategoryLabel: categoryLabel(ag),
		Items:         items,
	}, nil
}

func (e *Engine) summarizeCategory(ctx context.Context, category string, texts []string) (string, error) {
	prompt := fmt.Sprintf(`You are summarizing a set of personal notes under the category %q.

TASK:
- Produce a concise, readable summary for the category.
- Include key facts, dates and milestones where present.
- Note patterns or progression over time.
- Use ONLY the provided content; introduce nothing new.
- Use short paragraphs and bullet points where helpful.

OUTPUT:
- Write the final result in Markdown; it is rendered directly to the user.

CONTENT:
%s`, category, strings.Join(texts, "\n\n"))

	out, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
