package cloudbuild

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/durationpb"
)

const (
	// DockerBuilderImage runs every step of the build.
	DockerBuilderImage = "gcr.io/cloud-builders/docker"

	cachePullStepID = "Pull previous latest image for layer caching"
	buildStepID     = "Build"
	globalRegion    = "global"
)

// ImageNames returns the fully qualified image references for every tag.
func ImageNames(image string, tags []string) []string {
	return lo.Map(tags, func(tag string, _ int) string {
		return fmt.Sprintf("%s:%s", image, tag)
	})
}

// LatestImage returns the first image name ending in "latest".
func LatestImage(imageNames []string) (string, bool) {
	return lo.Find(imageNames, func(n string) bool {
		return strings.HasSuffix(n, "latest")
	})
}

// BuildSpec assembles the Cloud Build description for opts without validating it.
func BuildSpec(opts BuildOptions) *cloudbuildpb.Build {
	imageNames := ImageNames(opts.Build.Image, opts.Build.Tags)

	// Reuse layers from the previous latest image when there is one.
	latestImage, hasLatest := LatestImage(imageNames)

	var steps []*cloudbuildpb.BuildStep
	if hasLatest {
		steps = append(steps, &cloudbuildpb.BuildStep{
			Id:         cachePullStepID,
			Name:       DockerBuilderImage,
			Entrypoint: "bash",
			Args:       []string{"-c", fmt.Sprintf("docker pull %s || exit 0", latestImage)},
		})
	}
	steps = append(steps, &cloudbuildpb.BuildStep{
		Id:   buildStepID,
		Name: DockerBuilderImage,
		Args: buildArgs(opts.Build, imageNames, latestImage),
	})

	build := &cloudbuildpb.Build{
		Source: &cloudbuildpb.Source{
			Source: &cloudbuildpb.Source_StorageSource{
				StorageSource: &cloudbuildpb.StorageSource{
					Bucket: opts.Source.Bucket,
					Object: opts.Source.Path,
				},
			},
		},
		Steps: steps,
		Options: &cloudbuildpb.BuildOptions{
			MachineType: machineTypeValue(opts.GCP.MachineType),
		},
		Images:    imageNames,
		ProjectId: opts.GCP.ProjectID,
	}

	if opts.Timeout > 0 {
		build.Timeout = durationpb.New(opts.Timeout)
	}

	return build
}

// buildArgs returns the docker arguments of the build step.
func buildArgs(img ImageOptions, imageNames []string, latestImage string) []string {
	args := []string{"build"}
	if latestImage != "" {
		args = append(args, "--cache-from", latestImage)
	}
	if img.DockerfilePath != "" {
		args = append(args, fmt.Sprintf("--file=%s", path.Join(img.RootFolder, img.DockerfilePath)))
	}
	for _, n := range imageNames {
		args = append(args, "--tag", n)
	}
	return append(args, img.RootFolder)
}

// NewRequest validates opts and builds the create-build request.
func NewRequest(opts BuildOptions) (*cloudbuildpb.CreateBuildRequest, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}

	req := &cloudbuildpb.CreateBuildRequest{
		ProjectId: opts.GCP.ProjectID,
		Build:     BuildSpec(opts),
	}
	if region := opts.GCP.Region; region != "" && region != globalRegion {
		req.Parent = fmt.Sprintf("projects/%s/locations/%s", opts.GCP.ProjectID, region)
	}
	return req, nil
}

// Validate checks that opts describe a build the service can accept.
func Validate(opts BuildOptions) error {
	var errs []error

	if opts.GCP.ProjectID == "" {
		errs = append(errs, errors.New("project id is required"))
	}
	if opts.Build.Image == "" {
		errs = append(errs, errors.New("image is required"))
	}
	if len(opts.Build.Tags) == 0 {
		errs = append(errs, errors.New("at least one tag is required"))
	}
	if opts.Build.RootFolder == "" {
		errs = append(errs, errors.New("root folder is required"))
	}
	if opts.Source.Bucket == "" || opts.Source.Path == "" {
		errs = append(errs, errors.New("source bucket and path are required"))
	}
	if !IsValidMachineType(opts.GCP.MachineType) {
		errs = append(errs, fmt.Errorf("invalid machine type: %s", opts.GCP.MachineType))
	}

	if opts.Build.Image != "" {
		for _, n := range ImageNames(opts.Build.Image, opts.Build.Tags) {
			if _, err := name.NewTag(n); err != nil {
				errs = append(errs, fmt.Errorf("invalid image reference %q: %w", n, err))
			}
		}
	}

	return errors.Join(errs...)
}

// IsValidMachineType reports whether mt is a supported machine type.
// An empty value is treated as unspecified.
func IsValidMachineType(mt MachineType) bool {
	return mt == "" || lo.Contains(MachineTypes, mt)
}

func machineTypeValue(mt MachineType) cloudbuildpb.BuildOptions_MachineType {
	if v, ok := cloudbuildpb.BuildOptions_MachineType_value[string(mt)]; ok {
		return cloudbuildpb.BuildOptions_MachineType(v)
	}
	return cloudbuildpb.BuildOptions_UNSPECIFIED
}
