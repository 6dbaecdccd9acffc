package github

import (
	"github.com/go-git/go-git/v5"

	"github.com/dosanma1/cloudbuild-action/internal/console"
)

// CommitSHA returns a provider for the commit being built.
// GITHUB_SHA wins; otherwise the HEAD of the repository containing dir is used.
// The provider returns "" when neither is available.
func CommitSHA(e Env, dir string) func() string {
	return func() string {
		if e.SHA != "" {
			return e.SHA
		}
		return headSHA(dir)
	}
}

func headSHA(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		console.Debugf("No git repository found at %s: %v", dir, err)
		return ""
	}

	head, err := repo.Head()
	if err != nil {
		console.Debugf("Could not resolve HEAD: %v", err)
		return ""
	}
	return head.Hash().String()
}
