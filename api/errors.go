package api

import (
	"errors"
	"fmt"
)

// ErrNoKernel is returned when streaming before a kernel has been loaded,
// including after a failed pass.
var ErrNoKernel = errors.New("no kernel loaded")

// DeviceTimeoutError reports a STATUS poll that never saw a valid result.
// The pass is abandoned; the device must be reloaded before the next one.
type DeviceTimeoutError struct {
	Index int
	Polls int
}

func (e *DeviceTimeoutError) Error() string {
	return fmt.Sprintf("device timeout: sample %d not ready after %d polls",
		e.Index, e.Polls)
}
