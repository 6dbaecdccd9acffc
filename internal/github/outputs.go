package github

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// WriteOutputs appends step outputs to the GITHUB_OUTPUT file at path.
// Multi-line values use the heredoc form with a random delimiter.
func WriteOutputs(path string, outputs map[string]string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatOutputs(outputs)); err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}
	return nil
}

// FormatOutputs renders outputs in GITHUB_OUTPUT syntax, sorted by name.
func FormatOutputs(outputs map[string]string) string {
	names := lo.Keys(outputs)
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		value := outputs[name]
		if !strings.ContainsAny(value, "\r\n") {
			fmt.Fprintf(&b, "%s=%s\n", name, value)
			continue
		}
		delimiter := "ghadelimiter_" + uuid.NewString()
		fmt.Fprintf(&b, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
	}
	return b.String()
}
