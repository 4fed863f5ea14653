package stage

import (
	"context"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *catalog.Record) error
	Execute(context.Context, *catalog.Record) error
	HealthCheck(context.Context) Health
}
