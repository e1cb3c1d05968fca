package dispatch

import (
	"fmt"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
)

// Domain errors wrap the transport sentinels so handlers map them to status
// codes with errors.Is alone. Bad vehicle and driver references are
// validation failures rather than not-found, matching the dispatch form
// semantics: the caller picked an id that is not usable, the resource being
// edited does exist.
var (
	ErrDeliveryNotFound = fmt.Errorf("delivery: %w", httpx.ErrNotFound)
	ErrClientNotFound   = fmt.Errorf("client: %w", httpx.ErrNotFound)

	ErrUnknownStatus = fmt.Errorf("%w: unknown delivery status", httpx.ErrValidation)
	ErrBadVehicleRef = fmt.Errorf("%w: vehicle does not exist", httpx.ErrValidation)
	ErrBadDriverRef  = fmt.Errorf("%w: driver does not exist", httpx.ErrValidation)

	ErrNotAssignedDriver = fmt.Errorf("%w: delivery is assigned to another driver", httpx.ErrForbidden)

	ErrDeliveryLocked = fmt.Errorf("%w: in-progress or delivered deliveries cannot be deleted", httpx.ErrConflict)
)
