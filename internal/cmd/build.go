package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dosanma1/cloudbuild-action/internal/cloudbuild"
	"github.com/dosanma1/cloudbuild-action/internal/config"
	"github.com/dosanma1/cloudbuild-action/internal/console"
	"github.com/dosanma1/cloudbuild-action/internal/gcs"
	"github.com/dosanma1/cloudbuild-action/internal/progress"
	"github.com/dosanma1/cloudbuild-action/pkg/xos"
)

var (
	buildImage        string
	buildTags         []string
	buildDockerfile   string
	buildRootFolder   string
	buildProject      string
	buildRegion       string
	buildMachineType  string
	buildKeyFile      string
	buildSourceBucket string
	buildSourcePath   string
	buildVerifySource bool
	buildTimeout      string
	buildResultFile   string
	buildPollInterval time.Duration

	buildTagFlags tagFlags
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and push a Docker image with Google Cloud Build",
	Long: `Submits a Docker build of an uploaded source archive to Google Cloud Build
and waits until it finishes, reporting the build status along the way.

Tags are computed from the GitHub context unless --tag is given. When one of
the tags ends in "latest", that image is pulled first and used as cache.

The result is written to the step outputs logs-url, digest and images, and
to --result-file as JSON when set. The command fails when the build fails.

Examples:
  cloudbuild-action build --image=gcr.io/my-project/api \
    --source-bucket=my-builds --source-path=sources/api.tar.gz
  cloudbuild-action build --tag=v1.2.3 --tag=latest --region=europe-west1
  cloudbuild-action build --machine-type=E2_HIGHCPU_8 --timeout=30m`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildImage, "image", "", "Image name without tag, e.g. gcr.io/project/app")
	buildCmd.Flags().StringSliceVarP(&buildTags, "tag", "t", nil, "Tags to apply instead of generated ones")
	buildCmd.Flags().StringVarP(&buildDockerfile, "dockerfile", "f", "", "Dockerfile path relative to the root folder")
	buildCmd.Flags().StringVar(&buildRootFolder, "root-folder", "", "Directory inside the archive used as build context")
	buildCmd.Flags().StringVar(&buildProject, "project", "", "Google Cloud project id")
	buildCmd.Flags().StringVar(&buildRegion, "region", "", "Cloud Build region (global uses the global endpoint)")
	buildCmd.Flags().StringVar(&buildMachineType, "machine-type", "", "Worker machine type (UNSPECIFIED|N1_HIGHCPU_8|N1_HIGHCPU_32|E2_HIGHCPU_8|E2_HIGHCPU_32)")
	buildCmd.Flags().StringVar(&buildKeyFile, "key-file", "", "Service account key file")
	buildCmd.Flags().StringVar(&buildSourceBucket, "source-bucket", "", "Bucket holding the source archive")
	buildCmd.Flags().StringVar(&buildSourcePath, "source-path", "", "Object path of the source archive")
	buildCmd.Flags().BoolVar(&buildVerifySource, "verify-source", false, "Check the source archive exists before submitting")
	buildCmd.Flags().StringVar(&buildTimeout, "timeout", "", "Remote build timeout, e.g. 20m")
	buildCmd.Flags().StringVar(&buildResultFile, "result-file", "", "Write the build result as JSON to this file")
	buildCmd.Flags().DurationVar(&buildPollInterval, "poll-interval", cloudbuild.DefaultOperationPollInterval, "How often to fetch the build operation")
	buildTagFlags.register(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := loadResolver(cmd)
	if err != nil {
		return err
	}

	tagList := buildTags
	if len(tagList) == 0 {
		info, err := buildTagFlags.generateTags(cmd, r)
		if err != nil {
			return err
		}
		tagList = info.AllTags
	}

	opts, err := buildOptions(r, tagList)
	if err != nil {
		return err
	}
	if err := cloudbuild.Validate(opts); err != nil {
		return fmt.Errorf("invalid build options: %w", err)
	}

	keyFile := r.ResolveKeyFile(buildKeyFile)

	verify, err := shouldVerifySource(r, opts.Source)
	if err != nil {
		return err
	}
	if verify {
		if err := verifySource(ctx, keyFile, opts.Source); err != nil {
			return err
		}
	}

	console.Infof("🚀 Building %s with tags %v", opts.Build.Image, opts.Build.Tags)

	service, err := cloudbuild.NewGCPService(ctx, cloudbuild.GCPConfig{
		KeyFile:      keyFile,
		Region:       opts.GCP.Region,
		PollInterval: buildPollInterval,
	})
	if err != nil {
		return err
	}
	defer service.Close()

	reporter := progress.New(os.Stderr, console.IsTTY(os.Stderr) && !ghEnv.Actions)
	client := cloudbuild.NewClient(service, cloudbuild.WithReporter(reporter))

	result := client.BuildDockerImage(ctx, opts)
	if err := reporter.Close(); err != nil {
		console.Debugf("Failed to close progress reporter: %v", err)
	}

	if err := writeBuildResult(result); err != nil {
		return err
	}

	if result.Failed() {
		console.Errorf("Build failed: %s (code %d)", result.Error.Message, result.Error.Code)
		if hint := cloudbuild.Hint(result.Error); hint != "" {
			console.Infof("💡 %s", hint)
		}
		console.Infof("📋 Logs: %s", result.LogsURL)
		return fmt.Errorf("build failed: %s", result.Error.Message)
	}

	console.Info("✅ Build succeeded")
	for _, img := range result.Result.Images {
		console.Infof("   %s@%s", img.Name, img.Digest)
	}
	console.Infof("📋 Logs: %s", result.LogsURL)
	return nil
}

// buildOptions merges flags, config file and environment into build options.
func buildOptions(r *config.Resolver, tagList []string) (cloudbuild.BuildOptions, error) {
	timeout, err := config.BuildConfig{Timeout: r.ResolveTimeout(buildTimeout)}.TimeoutDuration()
	if err != nil {
		return cloudbuild.BuildOptions{}, err
	}

	return cloudbuild.BuildOptions{
		Source: cloudbuild.SourceOptions{
			Bucket: r.ResolveSourceBucket(buildSourceBucket),
			Path:   r.ResolveSourcePath(buildSourcePath),
		},
		Build: cloudbuild.ImageOptions{
			Image:          r.ResolveImage(buildImage),
			DockerfilePath: r.ResolveDockerfile(buildDockerfile),
			Tags:           tagList,
			RootFolder:     r.ResolveRootFolder(buildRootFolder),
		},
		GCP: cloudbuild.GCPOptions{
			MachineType: cloudbuild.MachineType(r.ResolveMachineType(buildMachineType)),
			Region:      r.ResolveRegion(buildRegion),
			ProjectID:   r.ResolveProjectID(buildProject),
		},
		Timeout: timeout,
	}, nil
}

// shouldVerifySource reports whether the preflight runs. The source location
// is checked after flags and file are merged.
func shouldVerifySource(r *config.Resolver, src cloudbuild.SourceOptions) (bool, error) {
	if !r.ResolveVerifySource(buildVerifySource) {
		return false, nil
	}
	if src.Bucket == "" || src.Path == "" {
		return false, fmt.Errorf("source verification requires a source bucket and path")
	}
	return true, nil
}

func verifySource(ctx context.Context, keyFile string, src cloudbuild.SourceOptions) error {
	client, err := gcs.NewClient(ctx, keyFile)
	if err != nil {
		return err
	}
	checker := gcs.NewSourceChecker(client)
	defer checker.Close()

	if _, err := checker.Check(ctx, src.Bucket, src.Path); err != nil {
		return fmt.Errorf("failed to verify source: %w", err)
	}
	console.Infof("📦 Found source archive gs://%s/%s", src.Bucket, src.Path)
	return nil
}

// writeBuildResult writes step outputs and the optional result file.
func writeBuildResult(result cloudbuild.BuildResult) error {
	var images []cloudbuild.Image
	if result.Result != nil {
		images = result.Result.Images
	}

	outputs, err := buildOutputs(result.LogsURL, images)
	if err != nil {
		return err
	}
	if err := writeOutputs(outputs); err != nil {
		return err
	}

	if buildResultFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal build result: %w", err)
	}
	if err := xos.WriteFile(buildResultFile, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	console.Debugf("Wrote build result to %s", buildResultFile)
	return nil
}

func buildOutputs(logsURL string, images []cloudbuild.Image) (map[string]string, error) {
	if images == nil {
		images = []cloudbuild.Image{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal images: %w", err)
	}

	digest := ""
	if len(images) > 0 {
		digest = images[0].Digest
	}

	return map[string]string{
		"logs-url": logsURL,
		"digest":   digest,
		"images":   string(imagesJSON),
	}, nil
}
