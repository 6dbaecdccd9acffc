package cloudbuild

import (
	"regexp"
	"strings"

	"google.golang.org/grpc/codes"
)

var (
	missingBucketRe = regexp.MustCompile(`bucket ([a-z0-9._-]+) (does not exist|not found)`)
	missingObjectRe = regexp.MustCompile(`gs://[^\s"']+`)
)

// Hint suggests a next step for a failed build, or "" when there is nothing
// better to say than the error message itself.
func Hint(e *BuildError) string {
	if e == nil {
		return ""
	}
	msg := strings.ToLower(e.Message)

	switch codes.Code(e.Code) {
	case codes.PermissionDenied:
		return "The service account lacks permission. Grant it roles/cloudbuild.builds.editor on the project."
	case codes.Unauthenticated:
		return "No valid credentials. Check --key-file or GOOGLE_APPLICATION_CREDENTIALS."
	case codes.NotFound:
		return translateNotFound(msg)
	case codes.DeadlineExceeded:
		return "The build ran past its timeout. Raise --timeout or build.timeout."
	case codes.Canceled:
		return "The build was cancelled."
	}

	switch {
	case strings.Contains(msg, "context canceled"):
		return "Stopped waiting for the build. It may still be running remotely."
	case strings.Contains(msg, "build step") && strings.Contains(msg, "failed"):
		return "A build step failed. Open the logs URL for the step output."
	case strings.Contains(msg, "could not find default credentials"):
		return "No valid credentials. Check --key-file or GOOGLE_APPLICATION_CREDENTIALS."
	}
	return ""
}

func translateNotFound(msg string) string {
	if m := missingBucketRe.FindStringSubmatch(msg); len(m) > 1 {
		return "Bucket '" + m[1] + "' was not found. Check --source-bucket."
	}
	if uri := missingObjectRe.FindString(msg); uri != "" {
		return "Source archive " + uri + " was not found. Check --source-path."
	}
	return "A referenced resource was not found. Check the project id and source location."
}
