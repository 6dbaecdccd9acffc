package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosanma1/cloudbuild-action/internal/config"
	"github.com/dosanma1/cloudbuild-action/internal/console"
	"github.com/dosanma1/cloudbuild-action/internal/github"
	"github.com/dosanma1/cloudbuild-action/internal/tags"
)

// loadResolver reads the config file. A missing default file is fine; a
// missing file named with --config is not.
func loadResolver(cmd *cobra.Command) (*config.Resolver, error) {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadOptional(configFile)
	}
	if err != nil {
		return nil, err
	}

	env, err := config.LoadEnvironment()
	if err != nil {
		return nil, err
	}
	return config.NewResolver(cfg, env), nil
}

// tagFlags are shared by the tags and build commands.
type tagFlags struct {
	format     string
	latest     bool
	additional []string
}

func (f *tagFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Tag format for branch builds, e.g. $BRANCH-$SHA")
	cmd.Flags().BoolVar(&f.latest, "latest", false, "Append -latest to the primary branch tag")
	cmd.Flags().StringSliceVar(&f.additional, "additional-tags", nil, "Extra tags to apply")
}

// generateTags computes tags for the current GitHub Actions context.
func (f *tagFlags) generateTags(cmd *cobra.Command, r *config.Resolver) (tags.TagInformation, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return tags.TagInformation{}, fmt.Errorf("failed to get current directory: %w", err)
	}

	actx := github.NewContext(ghEnv)
	console.Debugf("Action type %s, ref %q", actx.ActionType(), actx.NormalizedRefName())

	gen := tags.NewGenerator(actx, tags.WithSHA(github.CommitSHA(ghEnv, cwd)))
	info, err := gen.Tags(
		r.ResolveTagFormat(f.format),
		r.ResolveIncludeLatest(f.latest, cmd.Flags().Changed("latest")),
		r.ResolveAdditionalTags(f.additional),
	)
	if err != nil {
		return tags.TagInformation{}, fmt.Errorf("failed to generate tags: %w", err)
	}
	return info, nil
}

// writeOutputs appends step outputs when running inside GitHub Actions.
func writeOutputs(outputs map[string]string) error {
	if ghEnv.Output == "" {
		console.Debug("GITHUB_OUTPUT is not set, skipping step outputs")
		return nil
	}
	return github.WriteOutputs(ghEnv.Output, outputs)
}
