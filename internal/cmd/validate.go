package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosanma1/cloudbuild-action/internal/cloudbuild"
	"github.com/dosanma1/cloudbuild-action/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the .cloudbuild.yaml configuration",
	Long: `Validates the configuration file against the JSON Schema and checks the
build options it describes, without contacting Google Cloud.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s not found", configFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", configFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🔍 Validating %s...\n", configFile)

	result, err := config.ValidateSchema(data)
	if err != nil {
		return err
	}

	if !result.Valid() {
		fmt.Fprintln(cmd.OutOrStdout(), "\n❌ Validation failed with the following errors:")
		fmt.Fprintln(cmd.OutOrStdout())

		for i, desc := range result.Errors() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, desc.String())
			fmt.Fprintf(cmd.OutOrStdout(), "   Field: %s\n", desc.Field())
			fmt.Fprintf(cmd.OutOrStdout(), "   Type: %s\n\n", desc.Type())
		}

		return fmt.Errorf("validation failed with %d errors", len(result.Errors()))
	}

	cfg, err := config.Decode(data)
	if err != nil {
		return err
	}

	if err := validateSemantics(cfg); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\n⚠️  Semantic warning: %v\n", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid!\n", configFile)
	return nil
}

// validateSemantics checks the parts of a build that can be validated offline.
// Tags come from the GitHub context at build time, so a placeholder is used.
func validateSemantics(cfg *config.Config) error {
	if cfg.Image.Name == "" {
		return fmt.Errorf("image.name is not set and must be passed with --image")
	}

	opts := cloudbuild.BuildOptions{
		Source: cloudbuild.SourceOptions{Bucket: cfg.Source.Bucket, Path: cfg.Source.Path},
		Build: cloudbuild.ImageOptions{
			Image:          cfg.Image.Name,
			DockerfilePath: cfg.Image.Dockerfile,
			Tags:           []string{"validate"},
			RootFolder:     cfg.Image.RootFolder,
		},
		GCP: cloudbuild.GCPOptions{
			MachineType: cloudbuild.MachineType(cfg.GCP.MachineType),
			Region:      cfg.GCP.Region,
			ProjectID:   cfg.GCP.ProjectID,
		},
	}
	return cloudbuild.Validate(opts)
}
