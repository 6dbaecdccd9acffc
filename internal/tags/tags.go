// Package tags produces the ordered list of image tags for a CI run.
package tags

import (
	"fmt"
	"strings"
	"time"
)

// ActionType is the kind of event that triggered the run.
type ActionType string

const (
	ActionPR     ActionType = "pr"
	ActionCommit ActionType = "commit"
	ActionTag    ActionType = "tag"
	ActionOther  ActionType = "other"
)

// ActionContext describes the ref the run was triggered for.
type ActionContext interface {
	// ActionType returns the kind of triggering event.
	ActionType() ActionType

	// NormalizedRefName returns the ref name made safe for use as an image tag.
	NormalizedRefName() string
}

// TagInformation is the result of tag generation.
// Primary is always AllTags[0].
type TagInformation struct {
	AllTags []string `json:"allTags"`
	Primary string   `json:"primary"`
}

// LatestSuffix is appended to the primary branch tag when latest tagging is requested.
const LatestSuffix = "-latest"

// Generator builds tags from an action context.
type Generator struct {
	actx ActionContext
	sha  func() string
	now  func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSHA sets the commit SHA provider. The provider returns "" when no SHA is available.
func WithSHA(sha func() string) Option {
	return func(g *Generator) {
		g.sha = sha
	}
}

// WithClock sets the clock used for the date and time tokens.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a tag generator for the given action context.
func NewGenerator(actx ActionContext, opts ...Option) *Generator {
	g := &Generator{
		actx: actx,
		sha:  func() string { return "" },
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Tags generates the tag list for an image.
//
// For pull requests and commits the primary tag is the formatted branch tag,
// with LatestSuffix appended if includeLatest is set. For every other action
// type the primary tag is the normalized ref name and format is ignored.
// Additional tags follow the primary tag in the given order.
func (g *Generator) Tags(format string, includeLatest bool, additional []string) (TagInformation, error) {
	var primary string

	switch g.actx.ActionType() {
	case ActionPR, ActionCommit:
		branchTag, err := g.FormatBranchTag(format)
		if err != nil {
			return TagInformation{}, err
		}
		if includeLatest {
			branchTag += LatestSuffix
		}
		primary = branchTag
	default:
		primary = g.actx.NormalizedRefName()
	}

	all := make([]string, 0, len(additional)+1)
	all = append(all, primary)
	all = append(all, additional...)

	return TagInformation{
		AllTags: all,
		Primary: all[0],
	}, nil
}

// FormatBranchTag substitutes every placeholder token in format.
func (g *Generator) FormatBranchTag(format string) (string, error) {
	sha := ""
	if strings.Contains(format, "$SHA") {
		sha = g.sha()
		if sha == "" {
			return "", &MissingShaError{Format: format}
		}
		if len(sha) > 7 {
			sha = sha[:7]
		}
	}

	now := g.now()

	r := strings.NewReplacer(
		"$BRANCH", g.actx.NormalizedRefName(),
		"$SHA", sha,
		"$YYYY", fmt.Sprintf("%04d", now.Year()),
		"$MM", fmt.Sprintf("%02d", int(now.Month())),
		"$DD", fmt.Sprintf("%02d", now.Day()),
		"$HH", fmt.Sprintf("%02d", now.Hour()),
		"$mm", fmt.Sprintf("%02d", now.Minute()),
		"$SS", fmt.Sprintf("%02d", now.Second()),
	)
	return r.Replace(format), nil
}
