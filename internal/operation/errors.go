package operation

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a method declaration that cannot be expressed in
// the supported calling convention. It is never retried; the declaration has
// to be fixed at its source.
type ConfigurationError struct {
	Method    string // method identifier, when known
	Parameter string // parameter identifier, when the failure is parameter-level
	Field     string
	Message   string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Method != "" && e.Parameter != "":
		return fmt.Sprintf("method %s: parameter %s: %s: %s", e.Method, e.Parameter, e.Field, e.Message)
	case e.Method != "":
		return fmt.Sprintf("method %s: %s: %s", e.Method, e.Field, e.Message)
	case e.Parameter != "":
		return fmt.Sprintf("parameter %s: %s: %s", e.Parameter, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// withMethod returns err annotated with the method name when err is a
// *ConfigurationError that does not carry one yet.
func withMethod(err error, method string) error {
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Method != "" {
		return err
	}
	annotated := *cfgErr
	annotated.Method = method
	return &annotated
}
