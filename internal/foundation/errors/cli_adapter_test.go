package errors

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "input", err: InputError("bad fixture").Build(), expected: 3},
		{name: "not found", err: NotFoundError("no such declaration").Build(), expected: 4},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "journal", err: JournalError("locked").Build(), expected: 8},
		{name: "pipeline", err: PipelineError("cycle").Build(), expected: 11},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: &customError{msg: "unknown"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	cfg := ConfigError("missing input path").Build()
	if got := quiet.FormatError(cfg); got != "missing input path" {
		t.Errorf("expected bare message for config errors, got %q", got)
	}

	pipe := PipelineError("stage not registered").Build()
	if got := quiet.FormatError(pipe); got != "pipeline: stage not registered" {
		t.Errorf("unexpected format %q", got)
	}
	if got := verbose.FormatError(pipe); !strings.Contains(got, "[pipeline:fatal]") {
		t.Errorf("expected verbose format to include classification, got %q", got)
	}
	if got := quiet.FormatError(&customError{msg: "x"}); got != "Error: x" {
		t.Errorf("unexpected unclassified format %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)

	code := adapter.Report(&out, InputError("cannot decode").WithContext("path", "decls.yaml").Build())

	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !strings.Contains(out.String(), "cannot decode") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "path=decls.yaml") {
		t.Errorf("expected context to be logged, got %q", logs.String())
	}
}

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }
