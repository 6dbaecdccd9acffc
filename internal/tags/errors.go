package tags

import (
	"errors"
	"fmt"
)

// ErrMissingSha is matched by every MissingShaError.
var ErrMissingSha = errors.New("commit SHA is not available")

// MissingShaError is returned when a tag format uses $SHA and no commit SHA is available.
type MissingShaError struct {
	Format string
}

func (e *MissingShaError) Error() string {
	return fmt.Sprintf("tag format %q uses $SHA but no commit SHA is available (set GITHUB_SHA or run inside a git repository)", e.Format)
}

func (e *MissingShaError) Is(target error) bool {
	return target == ErrMissingSha
}
