package fleet

import (
	"fmt"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
)

var (
	ErrVehicleNotFound = fmt.Errorf("vehicle: %w", httpx.ErrNotFound)
	ErrUnknownStatus   = fmt.Errorf("%w: unknown vehicle status", httpx.ErrValidation)
)
