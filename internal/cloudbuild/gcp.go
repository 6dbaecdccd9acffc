package cloudbuild

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	cloudbuildapi "cloud.google.com/go/cloudbuild/apiv1/v2"
	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"

	"github.com/dosanma1/cloudbuild-action/internal/console"
)

// DefaultOperationPollInterval is how often the long-running operation is fetched from the service.
const DefaultOperationPollInterval = time.Second

// GCPConfig configures the Cloud Build client.
type GCPConfig struct {
	// KeyFile is a service account key file. Empty uses application default credentials.
	KeyFile string

	// Region selects a regional endpoint. Empty or "global" uses the global endpoint.
	Region string

	// PollInterval is how often the operation is fetched. Zero uses DefaultOperationPollInterval.
	PollInterval time.Duration
}

// GCPService talks to Cloud Build over gRPC.
type GCPService struct {
	client       *cloudbuildapi.Client
	pollInterval time.Duration
}

// NewGCPService creates a Cloud Build service. Extra client options are applied after the ones derived from cfg.
func NewGCPService(ctx context.Context, cfg GCPConfig, extra ...option.ClientOption) (*GCPService, error) {
	var opts []option.ClientOption
	if cfg.KeyFile != "" {
		console.Debugf("Initializing Cloud Build client with key file %s", cfg.KeyFile)
		opts = append(opts, option.WithCredentialsFile(cfg.KeyFile))
	}
	if cfg.Region != "" && cfg.Region != globalRegion {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-cloudbuild.googleapis.com:443", cfg.Region)))
	}
	opts = append(opts, extra...)

	client, err := cloudbuildapi.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud build client: %w", err)
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultOperationPollInterval
	}

	return &GCPService{
		client:       client,
		pollInterval: interval,
	}, nil
}

// CreateBuild submits the build.
func (s *GCPService) CreateBuild(ctx context.Context, req *cloudbuildpb.CreateBuildRequest) (Operation, error) {
	op, err := s.client.CreateBuild(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}

	o := &gcpOperation{op: op, interval: s.pollInterval}
	o.storeMetadata()
	return o, nil
}

// Close closes the underlying connection.
func (s *GCPService) Close() error {
	return s.client.Close()
}

// gcpOperation polls a CreateBuildOperation from a single goroutine (Wait)
// and publishes what it sees so that readers never touch the operation.
type gcpOperation struct {
	op       *cloudbuildapi.CreateBuildOperation
	interval time.Duration

	metadata  atomic.Pointer[cloudbuildpb.BuildOperationMetadata]
	remoteErr atomic.Pointer[status.Status]
}

func (o *gcpOperation) Name() string {
	return o.op.Name()
}

func (o *gcpOperation) Metadata() *cloudbuildpb.BuildOperationMetadata {
	return o.metadata.Load()
}

func (o *gcpOperation) LatestError() *status.Status {
	return o.remoteErr.Load()
}

func (o *gcpOperation) Wait(ctx context.Context) (*cloudbuildpb.Build, error) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		build, err := o.op.Poll(ctx)
		o.storeMetadata()
		if err != nil {
			if o.op.Done() {
				// The operation itself resolved with an error.
				o.remoteErr.Store(status.Convert(err))
				return nil, err
			}
			return nil, fmt.Errorf("failed to poll build operation: %w", err)
		}
		if o.op.Done() {
			return build, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (o *gcpOperation) storeMetadata() {
	md, err := o.op.Metadata()
	if err != nil {
		console.Debugf("Could not decode build metadata: %v", err)
		return
	}
	if md != nil {
		o.metadata.Store(md)
	}
}
