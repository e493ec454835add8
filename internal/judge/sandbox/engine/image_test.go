package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	appErr "codejudge/pkg/errors"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

type notFoundErr struct{}

func (notFoundErr) Error() string { return "no such image" }
func (notFoundErr) NotFound()     {}

type fakeImageAPI struct {
	pingErr    error
	present    map[string]bool
	inspectErr error
	pullErr    error
	pulled     []string
}

func (f *fakeImageAPI) Ping(ctx context.Context) (types.Ping, error) {
	return types.Ping{}, f.pingErr
}

func (f *fakeImageAPI) ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error) {
	if f.inspectErr != nil {
		return image.InspectResponse{}, f.inspectErr
	}
	if f.present[imageID] {
		return image.InspectResponse{}, nil
	}
	return image.InspectResponse{}, notFoundErr{}
}

func (f *fakeImageAPI) ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	f.pulled = append(f.pulled, ref)
	return io.NopCloser(strings.NewReader(`{"status":"done"}`)), nil
}

func TestEnsureImagesPullsMissingOnce(t *testing.T) {
	api := &fakeImageAPI{present: map[string]bool{"gcc:latest": true}}
	checker := NewImageCheckerWithAPI(api)
	err := checker.EnsureImages(context.Background(), []string{"gcc:latest", "python:3.11-slim", "", "python:3.11-slim"})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if len(api.pulled) != 1 || api.pulled[0] != "python:3.11-slim" {
		t.Fatalf("unexpected pulls %v", api.pulled)
	}
}

func TestEnsureImagesErrors(t *testing.T) {
	checker := NewImageCheckerWithAPI(&fakeImageAPI{inspectErr: errors.New("daemon gone")})
	if err := checker.EnsureImages(context.Background(), []string{"x"}); !appErr.Is(err, appErr.BackendUnavailable) {
		t.Fatalf("expected BackendUnavailable, got %v", err)
	}
	checker = NewImageCheckerWithAPI(&fakeImageAPI{pullErr: errors.New("denied")})
	if err := checker.EnsureImages(context.Background(), []string{"x"}); !appErr.Is(err, appErr.BackendUnavailable) {
		t.Fatalf("expected BackendUnavailable, got %v", err)
	}
}

func TestPing(t *testing.T) {
	if err := NewImageCheckerWithAPI(&fakeImageAPI{}).Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	err := NewImageCheckerWithAPI(&fakeImageAPI{pingErr: errors.New("refused")}).Ping(context.Background())
	if !appErr.Is(err, appErr.BackendUnavailable) {
		t.Fatalf("expected BackendUnavailable, got %v", err)
	}
}
