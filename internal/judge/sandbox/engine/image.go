package engine

import (
	"context"
	"io"

	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"go.uber.org/zap"
)

// ImageAPI is the subset of the docker client used for preflight checks.
type ImageAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
}

// ImageChecker verifies the docker daemon is reachable and language images are present.
type ImageChecker struct {
	api ImageAPI
}

// NewImageChecker connects to the docker daemon described by the environment.
func NewImageChecker() (*ImageChecker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.BackendUnavailable, "create docker client failed")
	}
	return &ImageChecker{api: cli}, nil
}

// NewImageCheckerWithAPI builds a checker around an existing client.
func NewImageCheckerWithAPI(api ImageAPI) *ImageChecker {
	return &ImageChecker{api: api}
}

// Ping checks the daemon is reachable.
func (c *ImageChecker) Ping(ctx context.Context) error {
	if _, err := c.api.Ping(ctx); err != nil {
		return appErr.Wrapf(err, appErr.BackendUnavailable, "docker daemon unreachable")
	}
	return nil
}

// EnsureImages pulls every image that is not present locally.
// Duplicate names are checked once.
func (c *ImageChecker) EnsureImages(ctx context.Context, images []string) error {
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		if img == "" {
			continue
		}
		if _, ok := seen[img]; ok {
			continue
		}
		seen[img] = struct{}{}
		if err := c.ensureImage(ctx, img); err != nil {
			return err
		}
	}
	return nil
}

func (c *ImageChecker) ensureImage(ctx context.Context, img string) error {
	_, err := c.api.ImageInspect(ctx, img)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return appErr.Wrapf(err, appErr.BackendUnavailable, "inspect image %s failed", img)
	}

	logger.Info(ctx, "pulling docker image", zap.String("image", img))
	reader, err := c.api.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return appErr.Wrapf(err, appErr.BackendUnavailable, "pull image %s failed", img)
	}
	defer reader.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return appErr.Wrapf(err, appErr.BackendUnavailable, "pull image %s failed", img)
	}
	logger.Info(ctx, "docker image ready", zap.String("image", img))
	return nil
}
