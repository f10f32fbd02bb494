package replay

import "errors"

// ErrInvalidOrdering is returned when events are not in canonical chain order.
var ErrInvalidOrdering = errors.New("events are not in canonical chain order")
