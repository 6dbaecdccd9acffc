package cloudbuild

import (
	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"github.com/samber/lo"
	"google.golang.org/grpc/status"
)

const (
	// NotFound is reported when no logs URL is known.
	NotFound = "Not Found"

	// Unknown replaces absent image names and digests.
	Unknown = "Unknown"

	// ExceptionCode marks failures that happened on this side of the wire.
	ExceptionCode = -1
)

// BuildResult is the normalized outcome of a build. Exactly one of Error and
// Result is set.
type BuildResult struct {
	LogsURL string       `json:"logsUrl"`
	Error   *BuildError  `json:"error,omitempty"`
	Result  *BuildOutput `json:"result,omitempty"`
}

// BuildError describes a failed build.
type BuildError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// BuildOutput lists the images the service pushed.
type BuildOutput struct {
	Images []Image `json:"images"`
}

// Image is a pushed image and its digest.
type Image struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
}

// Failed reports whether the build did not succeed.
func (r BuildResult) Failed() bool {
	return r.Error != nil
}

func exceptionResult(err error) BuildResult {
	return BuildResult{
		LogsURL: NotFound,
		Error: &BuildError{
			Code:    ExceptionCode,
			Message: err.Error(),
		},
	}
}

func remoteFailureResult(logsURL string, st *status.Status) BuildResult {
	code := int(st.Code())
	if code == 0 {
		code = ExceptionCode
	}
	return BuildResult{
		LogsURL: logsURL,
		Error: &BuildError{
			Code:    code,
			Message: st.Message(),
		},
	}
}

func successResult(build *cloudbuildpb.Build) BuildResult {
	logsURL := build.GetLogUrl()
	if logsURL == "" {
		logsURL = NotFound
	}

	images := lo.Map(build.GetResults().GetImages(), func(img *cloudbuildpb.BuiltImage, _ int) Image {
		return Image{
			Name:   lo.CoalesceOrEmpty(img.GetName(), Unknown),
			Digest: lo.CoalesceOrEmpty(img.GetDigest(), Unknown),
		}
	})

	return BuildResult{
		LogsURL: logsURL,
		Result:  &BuildOutput{Images: images},
	}
}
