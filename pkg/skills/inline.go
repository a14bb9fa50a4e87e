package skills

import "context"

// InlineSkill wraps an in-process function as a skill. Useful for
// built-in checks and for tests.
type InlineSkill struct {
	name string
	fn   func(ctx context.Context, task Task) (*Result, error)
}

// NewInlineSkill builds a function-backed skill.
func NewInlineSkill(name string, fn func(ctx context.Context, task Task) (*Result, error)) *InlineSkill {
	return &InlineSkill{name: name, fn: fn}
}

// Name returns the capability name.
func (s *InlineSkill) Name() string { return s.name }

// Execute invokes the wrapped function.
func (s *InlineSkill) Execute(ctx context.Context, task Task) (*Result, error) {
	return s.fn(ctx, task)
}
