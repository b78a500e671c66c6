package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Placeholders substituted in a command template.
const (
	FilePlaceholder   = "{file}"
	OutputPlaceholder = "{output}"
)

// DefaultTimeout bounds a single extractor run.
const DefaultTimeout = 2 * time.Minute

// DefaultCommand runs the Dart declaration parser.
var DefaultCommand = []string{"dart", "run", "dartdoc_json.dart", FilePlaceholder, "--output", OutputPlaceholder}

// Tool turns a source file into the extractor's raw JSON output.
type Tool interface {
	Extract(ctx context.Context, sourcePath string) ([]byte, error)
}

// CommandTool runs an external command. When the template contains {output}
// the result is read from that temporary file, otherwise from stdout.
type CommandTool struct {
	command []string
	dir     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandTool creates a tool for the argv template. An empty template
// selects DefaultCommand.
func NewCommandTool(command []string) *CommandTool {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &CommandTool{
		command: append([]string(nil), command...),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
}

// WithDir sets the working directory of the command.
func (t *CommandTool) WithDir(dir string) *CommandTool {
	t.dir = dir
	return t
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func (t *CommandTool) WithTimeout(d time.Duration) *CommandTool {
	if d > 0 {
		t.timeout = d
	}
	return t
}

// WithLogger sets the logger.
func (t *CommandTool) WithLogger(logger *slog.Logger) *CommandTool {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// Extract runs the command for sourcePath.
func (t *CommandTool) Extract(ctx context.Context, sourcePath string) ([]byte, error) {
	outputPath := ""
	if t.usesOutputFile() {
		tmp, err := os.CreateTemp("", "symdoc-*.json")
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create extractor output file").Build()
		}
		outputPath = tmp.Name()
		_ = tmp.Close()
		defer func() { _ = os.Remove(outputPath) }()
	}

	argv := t.expand(sourcePath, outputPath)
	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// #nosec G204 -- the command template comes from the project configuration
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = t.dir
	cmd.WaitDelay = time.Second
	var stdout bytes.Buffer
	var combined lockedBuffer
	cmd.Stdout = io.MultiWriter(&stdout, &combined)
	cmd.Stderr = &combined

	commandLine := strings.Join(argv, " ")
	t.logger.Debug("Running extractor", logfields.Command(commandLine), logfields.Source(sourcePath))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("extractor canceled: %w", ctx.Err())
		}
		message := "extraction tool failed"
		if runCtx.Err() == context.DeadlineExceeded {
			message = fmt.Sprintf("extraction tool timed out after %s", t.timeout)
		}
		return nil, errors.ExtractionError(message).
			WithCause(err).
			WithContext("command", commandLine).
			WithContext("output", combined.String()).
			WithContext("source", sourcePath).
			Build()
	}

	if outputPath == "" {
		return stdout.Bytes(), nil
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errors.ExtractionError("extraction tool produced no output file").
			WithCause(err).
			WithContext("command", commandLine).
			WithContext("output", combined.String()).
			Build()
	}
	return data, nil
}

func (t *CommandTool) usesOutputFile() bool {
	for _, arg := range t.command {
		if strings.Contains(arg, OutputPlaceholder) {
			return true
		}
	}
	return false
}

func (t *CommandTool) expand(sourcePath, outputPath string) []string {
	argv := make([]string, len(t.command))
	for i, arg := range t.command {
		arg = strings.ReplaceAll(arg, FilePlaceholder, sourcePath)
		argv[i] = strings.ReplaceAll(arg, OutputPlaceholder, outputPath)
	}
	return argv
}

// lockedBuffer collects stdout and stderr, which exec copies from separate
// goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
