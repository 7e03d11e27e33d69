package regs

import "fmt"

// ConfigError reports a register layout, kernel or run configuration that
// does not fit the documented map. It is fatal and is always raised before
// the device is touched.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
