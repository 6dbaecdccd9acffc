package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dosanma1/cloudbuild-action/internal/config"
	"github.com/dosanma1/cloudbuild-action/internal/console"
	"github.com/dosanma1/cloudbuild-action/internal/github"
)

var (
	configFile string
	verbose    bool
	noColor    bool

	// ghEnv is loaded once per invocation before any command runs.
	ghEnv github.Env
)

var rootCmd = &cobra.Command{
	Use:   "cloudbuild-action",
	Short: "Build Docker images on Google Cloud Build from GitHub Actions",
	Long: `cloudbuild-action computes image tags from the GitHub Actions context,
submits a Docker build to Google Cloud Build and waits for it to finish.

Settings come from flags, then .cloudbuild.yaml, then the environment.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupConsole,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func setupConsole(cmd *cobra.Command, args []string) error {
	env, err := github.LoadEnv()
	if err != nil {
		return err
	}
	ghEnv = env

	if verbose {
		console.SetLevel(console.DebugLevel)
	}
	console.SetGitHub(env.Actions)
	if noColor || env.Actions {
		console.SetColor(false)
	}
	return nil
}
