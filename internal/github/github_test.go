package github

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosanma1/cloudbuild-action/internal/tags"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("GITHUB_EVENT_NAME", "push")
	t.Setenv("GITHUB_REF", "refs/heads/main")
	t.Setenv("GITHUB_HEAD_REF", "")
	t.Setenv("GITHUB_SHA", "abcdef1234567890")
	t.Setenv("GITHUB_OUTPUT", "/tmp/out")

	e, err := LoadEnv()
	require.NoError(t, err)
	require.Equal(t, Env{
		Actions:   true,
		EventName: "push",
		Ref:       "refs/heads/main",
		SHA:       "abcdef1234567890",
		Output:    "/tmp/out",
	}, e)
}

func TestNewContext(t *testing.T) {
	tests := []struct {
		name     string
		env      Env
		wantType tags.ActionType
		wantRef  string
	}{
		{
			name:     "push to branch",
			env:      Env{EventName: "push", Ref: "refs/heads/feature/login"},
			wantType: tags.ActionCommit,
			wantRef:  "feature-login",
		},
		{
			name:     "pull request uses head ref",
			env:      Env{EventName: "pull_request", Ref: "refs/pull/42/merge", HeadRef: "fix/typo"},
			wantType: tags.ActionPR,
			wantRef:  "fix-typo",
		},
		{
			name:     "pull request without head ref",
			env:      Env{EventName: "pull_request_target", Ref: "refs/pull/42/merge"},
			wantType: tags.ActionPR,
			wantRef:  "42-merge",
		},
		{
			name:     "tag",
			env:      Env{EventName: "push", Ref: "refs/tags/v1.2.3"},
			wantType: tags.ActionTag,
			wantRef:  "v1.2.3",
		},
		{
			name:     "other",
			env:      Env{EventName: "workflow_dispatch", Ref: "something"},
			wantType: tags.ActionOther,
			wantRef:  "something",
		},
		{
			name:     "empty",
			env:      Env{},
			wantType: tags.ActionOther,
			wantRef:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(tt.env)
			assert.Equal(t, tt.wantType, c.ActionType())
			assert.Equal(t, tt.wantRef, c.NormalizedRefName())
		})
	}
}

func TestNormalizeRefName(t *testing.T) {
	require.Equal(t, "main", NormalizeRefName("refs/heads/main"))
	require.Equal(t, "Feature_X.1", NormalizeRefName("Feature_X.1"))
	require.Equal(t, "deps-bump-go-1.25", NormalizeRefName("refs/heads/deps/bump go@1.25"))
	require.Equal(t, "hidden", NormalizeRefName("refs/heads/.-hidden"))
	require.Len(t, NormalizeRefName(strings.Repeat("a", 300)), 128)
}

func TestCommitSHAPrefersEnv(t *testing.T) {
	sha := CommitSHA(Env{SHA: "abcdef1234567890"}, t.TempDir())
	require.Equal(t, "abcdef1234567890", sha())
}

func TestCommitSHAFromRepository(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("Dockerfile")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))

	require.Equal(t, hash.String(), CommitSHA(Env{}, sub)())
}

func TestCommitSHAMissing(t *testing.T) {
	require.Empty(t, CommitSHA(Env{}, t.TempDir())())
}

func TestFormatOutputs(t *testing.T) {
	out := FormatOutputs(map[string]string{
		"tags":        "main-abc,latest",
		"primary-tag": "main-abc",
		"images":      "line1\nline2",
	})

	re := regexp.MustCompile(`^images<<(ghadelimiter_[0-9a-f-]+)\nline1\nline2\n(ghadelimiter_[0-9a-f-]+)\nprimary-tag=main-abc\ntags=main-abc,latest\n$`)
	m := re.FindStringSubmatch(out)
	require.NotNil(t, m, out)
	require.Equal(t, m[1], m[2])
}

func TestWriteOutputsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0644))

	require.NoError(t, WriteOutputs(path, map[string]string{"logs-url": "https://logs"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "existing=1\nlogs-url=https://logs\n", string(data))
}
