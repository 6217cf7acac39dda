package ports

import (
	"context"

	"github.com/mdevran/porthole/internal/core/domain"
)

// ContainerRuntime is the control plane's contract with the container
// runtime daemon. Implementations translate these calls into the runtime's
// management API and map failures onto the domain error kinds; they never
// retry internally.
//
// Start on a running container and Stop on a stopped one are successful
// no-ops, not errors.
type ContainerRuntime interface {
	List(ctx context.Context) ([]domain.RawContainer, error)
	Create(ctx context.Context, req domain.CreateRequest) (domain.RawContainer, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}
