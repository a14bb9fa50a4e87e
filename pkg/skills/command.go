package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reviewd.skills")

// maxStderrExcerpt bounds how much tool stderr is carried into error
// messages.
const maxStderrExcerpt = 2048

// CommandSkill runs an external analysis tool as a subprocess. The
// task is written to the tool's stdin as JSON and the result is read
// from its stdout as JSON.
type CommandSkill struct {
	name    string
	command string
	args    []string
}

// NewCommandSkill builds a subprocess-backed skill. The command is
// resolved through PATH at execution time.
func NewCommandSkill(name, command string, args []string) (*CommandSkill, error) {
	if name == "" {
		return nil, fmt.Errorf("command skill requires a name")
	}
	if command == "" {
		return nil, fmt.Errorf("command skill %q requires a command", name)
	}
	return &CommandSkill{name: name, command: command, args: args}, nil
}

// Name returns the capability name.
func (s *CommandSkill) Name() string { return s.name }

// Execute runs the tool. Cancellation kills the subprocess via the
// command context.
func (s *CommandSkill) Execute(ctx context.Context, task Task) (*Result, error) {
	ctx, span := tracer.Start(ctx, "skills.command.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("skill.name", s.name),
		attribute.String("skill.todo_id", task.TodoID),
	)

	if err := task.Validate(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("validating task: %w", err)
	}

	input, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encoding task: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("running %s: %w%s", s.command, err, stderrExcerpt(stderr.String()))
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("decoding %s output: %w", s.command, err)
	}

	span.SetAttributes(attribute.Int("skill.findings", len(result.Findings)))
	return &result, nil
}

func stderrExcerpt(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > maxStderrExcerpt {
		stderr = stderr[:maxStderrExcerpt]
	}
	return ": " + stderr
}
