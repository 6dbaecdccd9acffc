package cloudbuild

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeService struct {
	op       *fakeOperation
	err      error
	requests []*cloudbuildpb.CreateBuildRequest
}

func (s *fakeService) CreateBuild(_ context.Context, req *cloudbuildpb.CreateBuildRequest) (Operation, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.op, nil
}

type fakeOperation struct {
	metadata atomic.Pointer[cloudbuildpb.BuildOperationMetadata]
	release  chan struct{}

	build     *cloudbuildpb.Build
	waitErr   error
	remoteErr *status.Status
	panicMsg  string
}

func newFakeOperation(s cloudbuildpb.Build_Status) *fakeOperation {
	op := &fakeOperation{release: make(chan struct{})}
	op.setStatus(s)
	return op
}

func (o *fakeOperation) setStatus(s cloudbuildpb.Build_Status) {
	o.metadata.Store(&cloudbuildpb.BuildOperationMetadata{
		Build: &cloudbuildpb.Build{Id: "build-1", Status: s, LogUrl: "https://logs/build-1"},
	})
}

func (o *fakeOperation) Name() string { return "operations/build/my-project/build-1" }

func (o *fakeOperation) Metadata() *cloudbuildpb.BuildOperationMetadata { return o.metadata.Load() }

func (o *fakeOperation) LatestError() *status.Status { return o.remoteErr }

func (o *fakeOperation) Wait(ctx context.Context) (*cloudbuildpb.Build, error) {
	select {
	case <-o.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if o.panicMsg != "" {
		panic(o.panicMsg)
	}
	return o.build, o.waitErr
}

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Report(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func newTestClient(svc BuildService, rec *recorder) *Client {
	return NewClient(svc,
		WithReporter(rec),
		WithPollInterval(time.Millisecond),
	)
}

func TestBuildDockerImageSuccess(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_QUEUED)
	op.build = &cloudbuildpb.Build{
		LogUrl: "https://logs/final",
		Results: &cloudbuildpb.Results{
			Images: []*cloudbuildpb.BuiltImage{
				{Name: "repo/img:latest", Digest: "sha256:aaa"},
				{Name: "repo/img:v1"},
				{Digest: "sha256:ccc"},
			},
		},
	}
	svc := &fakeService{op: op}
	rec := &recorder{}

	go func() {
		time.Sleep(20 * time.Millisecond)
		op.setStatus(cloudbuildpb.Build_WORKING)
		time.Sleep(20 * time.Millisecond)
		op.setStatus(cloudbuildpb.Build_SUCCESS)
		close(op.release)
	}()

	result := newTestClient(svc, rec).BuildDockerImage(t.Context(), testOptions())

	require.False(t, result.Failed())
	require.Nil(t, result.Error)
	require.Equal(t, "https://logs/final", result.LogsURL)
	require.Equal(t, []Image{
		{Name: "repo/img:latest", Digest: "sha256:aaa"},
		{Name: "repo/img:v1", Digest: Unknown},
		{Name: Unknown, Digest: "sha256:ccc"},
	}, result.Result.Images)

	require.Len(t, svc.requests, 1)
	require.Equal(t, []string{"repo/img:latest", "repo/img:v1"}, svc.requests[0].GetBuild().GetImages())

	lines := rec.Lines()
	require.NotEmpty(t, lines)
	require.Equal(t, StatusText(cloudbuildpb.Build_QUEUED), lines[0])
	require.Contains(t, lines, StatusText(cloudbuildpb.Build_WORKING))
}

func TestBuildDockerImageSuccessDefaults(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_SUCCESS)
	op.build = &cloudbuildpb.Build{}
	close(op.release)

	result := newTestClient(&fakeService{op: op}, &recorder{}).BuildDockerImage(t.Context(), testOptions())

	require.Nil(t, result.Error)
	require.Equal(t, NotFound, result.LogsURL)
	require.NotNil(t, result.Result)
	require.Empty(t, result.Result.Images)
}

func TestBuildDockerImageRemoteFailure(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_FAILURE)
	op.remoteErr = status.New(codes.Unknown, "Build failed; check build logs for details")
	op.waitErr = op.remoteErr.Err()
	close(op.release)

	result := newTestClient(&fakeService{op: op}, &recorder{}).BuildDockerImage(t.Context(), testOptions())

	require.True(t, result.Failed())
	require.Nil(t, result.Result)
	require.Equal(t, "https://logs/build-1", result.LogsURL)
	require.Equal(t, int(codes.Unknown), result.Error.Code)
	require.Equal(t, "Build failed; check build logs for details", result.Error.Message)
}

func TestBuildDockerImageRemoteFailureDefaults(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_FAILURE)
	op.remoteErr = status.New(codes.OK, "")
	close(op.release)

	result := newTestClient(&fakeService{op: op}, &recorder{}).BuildDockerImage(t.Context(), testOptions())

	require.Nil(t, result.Result)
	require.Equal(t, ExceptionCode, result.Error.Code)
	require.Equal(t, "", result.Error.Message)
}

func TestBuildDockerImageSubmissionError(t *testing.T) {
	svc := &fakeService{err: errors.New("permission denied on project")}

	result := newTestClient(svc, &recorder{}).BuildDockerImage(t.Context(), testOptions())

	require.Equal(t, BuildResult{
		LogsURL: NotFound,
		Error:   &BuildError{Code: ExceptionCode, Message: "permission denied on project"},
	}, result)
}

func TestBuildDockerImageInvalidOptions(t *testing.T) {
	svc := &fakeService{op: newFakeOperation(cloudbuildpb.Build_QUEUED)}
	opts := testOptions()
	opts.GCP.ProjectID = ""

	result := newTestClient(svc, &recorder{}).BuildDockerImage(t.Context(), opts)

	require.Equal(t, NotFound, result.LogsURL)
	require.Equal(t, ExceptionCode, result.Error.Code)
	require.Contains(t, result.Error.Message, "project id is required")
	require.Empty(t, svc.requests)
}

func TestBuildDockerImageTransportError(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_WORKING)
	op.waitErr = errors.New("connection reset by peer")
	close(op.release)

	result := newTestClient(&fakeService{op: op}, &recorder{}).BuildDockerImage(t.Context(), testOptions())

	require.Equal(t, NotFound, result.LogsURL)
	require.Equal(t, ExceptionCode, result.Error.Code)
	require.Equal(t, "connection reset by peer", result.Error.Message)
	require.Nil(t, result.Result)
}

func TestBuildDockerImageWaitPanics(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_WORKING)
	op.panicMsg = "malformed response"
	close(op.release)

	result := newTestClient(&fakeService{op: op}, &recorder{}).BuildDockerImage(t.Context(), testOptions())

	require.Equal(t, NotFound, result.LogsURL)
	require.Equal(t, ExceptionCode, result.Error.Code)
	require.Contains(t, result.Error.Message, "malformed response")
}

func TestBuildDockerImageContextCancelled(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_WORKING)
	ctx, cancel := context.WithCancel(t.Context())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := newTestClient(&fakeService{op: op}, &recorder{}).BuildDockerImage(ctx, testOptions())

	require.Equal(t, NotFound, result.LogsURL)
	require.Equal(t, ExceptionCode, result.Error.Code)
	require.Equal(t, context.Canceled.Error(), result.Error.Message)
}

func TestBuildDockerImageRepeatsHeldStatus(t *testing.T) {
	op := newFakeOperation(cloudbuildpb.Build_WORKING)
	op.build = &cloudbuildpb.Build{}
	rec := &recorder{}

	client := NewClient(&fakeService{op: op},
		WithReporter(rec),
		WithPollInterval(time.Millisecond),
		WithReportInterval(5*time.Millisecond),
	)

	go func() {
		time.Sleep(60 * time.Millisecond)
		close(op.release)
	}()

	result := client.BuildDockerImage(t.Context(), testOptions())
	require.Nil(t, result.Error)

	lines := rec.Lines()
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		require.Equal(t, StatusText(cloudbuildpb.Build_WORKING), l)
	}
}

func TestBuildDockerImageConcurrentCalls(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op := newFakeOperation(cloudbuildpb.Build_QUEUED)
			op.build = &cloudbuildpb.Build{LogUrl: "https://logs"}
			close(op.release)

			result := newTestClient(&fakeService{op: op}, &recorder{}).BuildDockerImage(context.Background(), testOptions())
			assert.Nil(t, result.Error)
			assert.Equal(t, "https://logs", result.LogsURL)
		}()
	}
	wg.Wait()
}
