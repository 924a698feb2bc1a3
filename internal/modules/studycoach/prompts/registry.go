package prompts

import (
	"fmt"
	"sync"
)

type Template struct {
	Name       PromptName
	Version    int
	SchemaName string
	Schema     func() map[string]any
	System     func(Input) (string, error)
	User       func(Input) (string, error)
	Validate   Validator
}

var (
	registryMu   sync.RWMutex
	registry     = map[PromptName]Template{}
	registerOnce sync.Once
)

func Register(t Template) {
	registryMu.Lock()
	registry[t.Name] = t
	registryMu.Unlock()
}

func lookup(name PromptName) (Template, bool) {
	registerOnce.Do(RegisterAll)
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// Build renders a registered prompt. The result goes to openai.GenerateJSON when it
// carries a schema, openai.GenerateText otherwise.
func Build(name PromptName, in Input) (Prompt, error) {
	t, ok := lookup(name)
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	if t.System == nil || t.User == nil {
		return Prompt{}, fmt.Errorf("prompt %s missing system/user renderers", string(name))
	}
	if t.Validate != nil {
		if err := t.Validate(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", string(name), err)
		}
	}
	system, err := t.System(in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system render: %w", string(name), err)
	}
	user, err := t.User(in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user render: %w", string(name), err)
	}

	p := Prompt{
		Name:       string(t.Name),
		Version:    t.Version,
		SchemaName: t.SchemaName,
		System:     system,
		User:       user,
	}
	if t.Schema != nil {
		p.Schema = t.Schema()
	}
	return p, nil
}
