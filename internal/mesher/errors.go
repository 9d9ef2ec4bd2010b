package mesher

import "fmt"

// ConfigError reports an invalid option value.
type ConfigError struct {
	Option string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid option %s = %v: %s", e.Option, e.Value, e.Reason)
}
