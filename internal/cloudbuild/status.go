package cloudbuild

import "cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"

// StatusText returns a human readable line for a build status.
func StatusText(status cloudbuildpb.Build_Status) string {
	switch status {
	case cloudbuildpb.Build_PENDING:
		return "Build is currently pending..."
	case cloudbuildpb.Build_QUEUED:
		return "Build is currently queued..."
	case cloudbuildpb.Build_WORKING:
		return "Build is currently working..."
	case cloudbuildpb.Build_SUCCESS:
		return "Build was successful!"
	case cloudbuildpb.Build_FAILURE:
		return "Build has failed!"
	case cloudbuildpb.Build_INTERNAL_ERROR:
		return "Build has failed with an internal error!"
	case cloudbuildpb.Build_TIMEOUT:
		return "Build has timed out!"
	case cloudbuildpb.Build_CANCELLED:
		return "Build was cancelled!"
	case cloudbuildpb.Build_EXPIRED:
		return "Build has expired!"
	default:
		return "Build is currently in an unknown status..."
	}
}
