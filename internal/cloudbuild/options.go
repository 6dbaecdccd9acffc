// Package cloudbuild submits container builds to Google Cloud Build and
// tracks them until they finish.
package cloudbuild

import "time"

// MachineType is a Cloud Build worker machine profile.
type MachineType string

const (
	MachineTypeUnspecified MachineType = "UNSPECIFIED"
	MachineTypeN1Highcpu8  MachineType = "N1_HIGHCPU_8"
	MachineTypeN1Highcpu32 MachineType = "N1_HIGHCPU_32"
	MachineTypeE2Highcpu8  MachineType = "E2_HIGHCPU_8"
	MachineTypeE2Highcpu32 MachineType = "E2_HIGHCPU_32"
)

// MachineTypes lists every supported machine type.
var MachineTypes = []MachineType{
	MachineTypeUnspecified,
	MachineTypeN1Highcpu8,
	MachineTypeN1Highcpu32,
	MachineTypeE2Highcpu8,
	MachineTypeE2Highcpu32,
}

// BuildOptions contains everything needed to describe one remote build.
type BuildOptions struct {
	Source SourceOptions
	Build  ImageOptions
	GCP    GCPOptions

	// Timeout is passed to Cloud Build as the remote build timeout.
	// Zero leaves the service default in place.
	Timeout time.Duration
}

// SourceOptions points at the uploaded source archive.
type SourceOptions struct {
	Bucket string
	Path   string
}

// ImageOptions describes the image to build.
type ImageOptions struct {
	// Image is the image name without a tag, e.g. "gcr.io/project/app".
	Image string

	// DockerfilePath is relative to RootFolder. Empty uses the builder default.
	DockerfilePath string

	Tags []string

	// RootFolder is the directory the source archive extracts to; it is the build context.
	RootFolder string
}

// GCPOptions selects where the build runs.
type GCPOptions struct {
	MachineType MachineType
	Region      string
	ProjectID   string
}
