package builder

import (
	"context"
	"io"
	"os"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	git "github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Adapter implements ports.ImageBuilder: it clones a git repository and
// builds an image from the Dockerfile at its root.
type Adapter struct {
	cli *client.Client
	log logrus.FieldLogger
}

// NewAdapter creates a builder using the environment's Docker daemon.
func NewAdapter(log logrus.FieldLogger) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "creating docker client")
	}
	return &Adapter{cli: cli, log: log}, nil
}

// BuildImage clones repoURL and builds imageName from it.
func (a *Adapter) BuildImage(ctx context.Context, repoURL string, imageName string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "porthole-build-*")
	if err != nil {
		return "", errors.Wrap(err, "creating build dir")
	}
	defer os.RemoveAll(tmpDir)

	a.log.WithFields(logrus.Fields{"repo": repoURL, "dir": tmpDir}).Info("cloning repository")
	_, err = git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
		URL:   repoURL,
		Depth: 1, // shallow clone, only the build needs the tree
	})
	if err != nil {
		return "", errors.Wrapf(err, "cloning %s", repoURL)
	}

	buildCtx, err := archive.TarWithOptions(tmpDir, &archive.TarOptions{})
	if err != nil {
		return "", errors.Wrap(err, "creating build context")
	}

	a.log.WithFields(logrus.Fields{"image": imageName}).Info("building image")
	resp, err := a.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{imageName},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return "", errors.Wrapf(err, "building %s", imageName)
	}
	defer resp.Body.Close()

	// The build only completes once the output stream is drained.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return "", errors.Wrapf(err, "building %s", imageName)
	}
	return imageName, nil
}
