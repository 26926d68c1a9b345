package agent

import (
	"sort"

	"github.com/agenthands/scribe/internal/config"
	"github.com/agenthands/scribe/internal/store"
	"github.com/agenthands/scribe/internal/subject"
)

// Agent is one conversational persona: its subject policy, prompt set,
// record type and mirror tab.
type Agent struct {
	Name            string
	EntryType       string
	SheetTab        string
	SystemPrompt    string
	DeveloperPrompt string
	Policy          subject.Policy
	Reports         map[string]string
}

// Registry is the immutable agent table, resolved once at startup. There
// is no process-wide "active agent"; every request names its agent.
type Registry struct {
	agents map[string]Agent
}

func NewRegistry(cfg map[string]config.AgentConfig) *Registry {
	agents := make(map[string]Agent, len(cfg))
	for name, a := range cfg {
		tab := a.SheetTab
		if tab == "" {
			tab = name + "_entries"
		}
		agents[name] = Agent{
			Name:            name,
			EntryType:       a.EntryType,
			SheetTab:        tab,
			SystemPrompt:    a.SystemPrompt,
			DeveloperPrompt: a.DeveloperPrompt,
			Policy:          a.Policy,
			Reports:         a.Reports,
		}
	}
	return &Registry{agents: agents}
}

// Lookup resolves an agent name. Unknown names are a validation failure.
func (r *Registry) Lookup(name string) (Agent, error) {
	a, ok := r.agents[name]
	if !ok {
		return Agent{}, &store.ValidationError{Reason: "unknown agent: " + name}
	}
	return a, nil
}

// Names lists registered agents in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
