// Package github reads the GitHub Actions run environment.
package github

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/dosanma1/cloudbuild-action/internal/tags"
)

// Env holds the GitHub Actions variables this tool reads.
type Env struct {
	Actions   bool   `env:"GITHUB_ACTIONS"`
	EventName string `env:"GITHUB_EVENT_NAME"`
	Ref       string `env:"GITHUB_REF"`
	HeadRef   string `env:"GITHUB_HEAD_REF"`
	SHA       string `env:"GITHUB_SHA"`
	Output    string `env:"GITHUB_OUTPUT"`
}

// LoadEnv parses the GitHub Actions variables from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse GitHub environment: %w", err)
	}
	return e, nil
}

const maxTagLength = 128

var invalidTagChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Context is the action context of a GitHub Actions run.
type Context struct {
	actionType tags.ActionType
	refName    string
}

// NewContext derives the action type and ref name from e.
//
// Pull request events use the head branch. Branch refs are commits, tag refs
// are tags, and anything else (or no ref at all) is other.
func NewContext(e Env) *Context {
	switch {
	case e.EventName == "pull_request" || e.EventName == "pull_request_target":
		ref := e.HeadRef
		if ref == "" {
			ref = e.Ref
		}
		return &Context{actionType: tags.ActionPR, refName: NormalizeRefName(ref)}
	case strings.HasPrefix(e.Ref, "refs/heads/"):
		return &Context{actionType: tags.ActionCommit, refName: NormalizeRefName(e.Ref)}
	case strings.HasPrefix(e.Ref, "refs/tags/"):
		return &Context{actionType: tags.ActionTag, refName: NormalizeRefName(e.Ref)}
	default:
		return &Context{actionType: tags.ActionOther, refName: NormalizeRefName(e.Ref)}
	}
}

func (c *Context) ActionType() tags.ActionType {
	return c.actionType
}

func (c *Context) NormalizedRefName() string {
	return c.refName
}

// NormalizeRefName turns a git ref into a valid image tag.
func NormalizeRefName(ref string) string {
	for _, prefix := range []string{"refs/heads/", "refs/tags/", "refs/pull/"} {
		if strings.HasPrefix(ref, prefix) {
			ref = strings.TrimPrefix(ref, prefix)
			break
		}
	}

	name := invalidTagChars.ReplaceAllString(ref, "-")
	name = strings.TrimLeft(name, ".-")
	if len(name) > maxTagLength {
		name = name[:maxTagLength]
	}
	return name
}
