package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dosanma1/cloudbuild-action/internal/console"
)

var tagsFlags tagFlags

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Print the image tags for the current GitHub context",
	Long: `Computes image tags from GITHUB_EVENT_NAME, GITHUB_REF and GITHUB_SHA.

Branch builds use --format, pull requests and tags use the ref name as is.
Each tag is printed on its own line; the first one is the primary tag.

Format tokens: $BRANCH $SHA $YYYY $MM $DD $HH $mm $SS

Examples:
  cloudbuild-action tags
  cloudbuild-action tags --format='$BRANCH-$YYYY$MM$DD' --latest
  cloudbuild-action tags --additional-tags=stable,edge`,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsFlags.register(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	r, err := loadResolver(cmd)
	if err != nil {
		return err
	}

	info, err := tagsFlags.generateTags(cmd, r)
	if err != nil {
		return err
	}

	for _, tag := range info.AllTags {
		console.Output(tag)
	}

	return writeOutputs(map[string]string{
		"tags":        strings.Join(info.AllTags, ","),
		"primary-tag": info.Primary,
	})
}
