package cloudbuild

import (
	"context"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"google.golang.org/grpc/status"
)

// BuildService is the remote build service.
type BuildService interface {
	// CreateBuild submits a build and returns the in-flight operation.
	CreateBuild(ctx context.Context, req *cloudbuildpb.CreateBuildRequest) (Operation, error)
}

// Operation is a long-running build operation.
type Operation interface {
	// Name returns the operation name.
	Name() string

	// Metadata returns the most recently observed build metadata. It never blocks
	// and may return nil before the service has reported any.
	Metadata() *cloudbuildpb.BuildOperationMetadata

	// Wait blocks until the operation finishes and returns the final build.
	Wait(ctx context.Context) (*cloudbuildpb.Build, error)

	// LatestError returns the error carried by the final operation response,
	// or nil if the operation has not failed remotely.
	LatestError() *status.Status
}
