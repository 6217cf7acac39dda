package ports

import "context"

// ImageBuilder builds container images from source repositories, used when a
// create request supplies a repo URL instead of a prebuilt image.
type ImageBuilder interface {
	// BuildImage clones a repository and builds an image from it.
	// It returns the reference of the built image or an error.
	BuildImage(ctx context.Context, repoURL string, imageName string) (string, error)
}
