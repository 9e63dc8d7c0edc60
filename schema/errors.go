package schema

import "fmt"

// ConfigurationError reports broken schema or rule wiring: an unknown schema
// or rule reference, a cyclic inheritance chain, an unknown check type, or a
// malformed record. It is detected eagerly, before any file is scanned.
type ConfigurationError struct {
	Subject string
	Detail  string
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("configuration error: %s", e.Detail)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Subject, e.Detail)
}

func newConfigError(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Detail: fmt.Sprintf(format, args...)}
}
