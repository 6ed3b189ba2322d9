package mention

import (
	"context"
	"log"
	"sort"
)

// Directory answers whether a name belongs to a registered agent.
type Directory interface {
	LookupAgent(ctx context.Context, name string) (agentID string, ok bool, err error)
}

type Resolved struct {
	AgentID string
	Name    string
}

// Set is a list of resolved mentions sorted by name.
type Set []Resolved

func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, r.Name)
	}
	return out
}

func (s Set) Contains(agentID string) bool {
	for _, r := range s {
		if r.AgentID == agentID {
			return true
		}
	}
	return false
}

type Validator struct {
	dir    Directory
	logger *log.Logger
}

func NewValidator(dir Directory, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{dir: dir, logger: logger}
}

// Validate keeps the candidates that name an existing agent exactly. It does
// not fail: unknown names are dropped, and so are names whose lookup errored.
func (v *Validator) Validate(ctx context.Context, candidates []string) Set {
	out := make(Set, 0, len(candidates))
	seen := map[string]struct{}{}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		id, ok, err := v.dir.LookupAgent(ctx, name)
		if err != nil {
			v.logger.Printf("mention: lookup %q failed, dropping: %v", name, err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, Resolved{AgentID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
