package cache

import "errors"

// ErrUnavailable is returned when the store is not connected. Callers gate
// their degradation behavior on it: reads that guard notifications fail
// open, writes become reported no-ops.
var ErrUnavailable = errors.New("cache unavailable")
