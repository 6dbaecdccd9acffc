// Package console writes leveled messages for people and for CI runners.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/logrusorgru/aurora"
)

// Level is a message severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Console writes messages to Out.
//
// In GitHub mode debug, warning and error messages are emitted as workflow
// commands so the runner can fold and annotate them; debug messages are then
// always written and the runner decides whether to show them.
type Console struct {
	Out    io.Writer
	Color  bool
	GitHub bool
	Level  Level
	mu     sync.Mutex
}

func (c *Console) Debug(msg string) { c.log(DebugLevel, msg) }
func (c *Console) Info(msg string)  { c.log(InfoLevel, msg) }
func (c *Console) Warn(msg string)  { c.log(WarnLevel, msg) }
func (c *Console) Error(msg string) { c.log(ErrorLevel, msg) }

func (c *Console) Debugf(msg string, v ...any) { c.log(DebugLevel, fmt.Sprintf(msg, v...)) }
func (c *Console) Infof(msg string, v ...any)  { c.log(InfoLevel, fmt.Sprintf(msg, v...)) }
func (c *Console) Warnf(msg string, v ...any)  { c.log(WarnLevel, fmt.Sprintf(msg, v...)) }
func (c *Console) Errorf(msg string, v ...any) { c.log(ErrorLevel, fmt.Sprintf(msg, v...)) }

// Output writes primary command output to stdout.
func (c *Console) Output(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(os.Stdout, s)
}

func (c *Console) log(level Level, msg string) {
	if level < c.Level && !(c.GitHub && level == DebugLevel) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.Out
	if out == nil {
		out = os.Stderr
	}

	if c.GitHub {
		if cmd := workflowCommand(level); cmd != "" {
			// Workflow commands are single line; the runner decodes %0A.
			fmt.Fprintf(out, "::%s::%s\n", cmd, escapeData(msg))
			return
		}
	}

	prompt := ""
	if c.Color {
		switch level {
		case WarnLevel:
			prompt = aurora.Yellow("⚠ ").String()
		case ErrorLevel:
			prompt = aurora.Red("ⅹ ").String()
		}
	}

	for _, line := range strings.Split(msg, "\n") {
		if c.Color && level == DebugLevel {
			line = aurora.Faint(line).String()
		}
		fmt.Fprintln(out, prompt+line)
	}
}

func workflowCommand(level Level) string {
	switch level {
	case DebugLevel:
		return "debug"
	case WarnLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	default:
		return ""
	}
}

func escapeData(s string) string {
	r := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	return r.Replace(s)
}
