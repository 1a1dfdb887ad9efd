package bootstrap

import "fmt"

// ConfigurationError is a missing or invalid required environment
// input. It is always fatal and is raised before any mutation.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// EnvironmentError is an expected directory, file or account state
// missing or inconsistent while the procedure is underway. Fatal.
type EnvironmentError struct {
	Reason string
	Err    error
}

func (e *EnvironmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("environment error: %s: %v", e.Reason, e.Err)
	}
	return "environment error: " + e.Reason
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}
