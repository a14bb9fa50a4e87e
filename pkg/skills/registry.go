package skills

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps capability names to skills. Registration happens at
// startup; resolution happens concurrently from dispatcher workers.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

// Register adds a skill under its name. Re-registering a name is an
// error; capability names are a stable contract with the oracle.
func (r *Registry) Register(s Skill) error {
	if s == nil {
		return fmt.Errorf("skill cannot be nil")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("skill requires a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.skills[name]; exists {
		return fmt.Errorf("skill %q already registered", name)
	}
	r.skills[name] = s
	return nil
}

// Resolve looks up a skill by capability name.
func (r *Registry) Resolve(name string) (Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSkillNotFound, name)
	}
	return s, nil
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered skills.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}
