package backtest

import "fmt"

// ConfigError reports invalid backtest configuration. It surfaces at
// construction time, before any model runs.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, a ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, a...)}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}
