package model

import "fmt"

// ValidationError reports a malformed value on a single supplier row.
type ValidationError struct {
	SupplierID string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("supplier %q: field %s %s", e.SupplierID, e.Field, e.Reason)
}

// ConfigurationError reports a supplier whose business unit has no weight set.
type ConfigurationError struct {
	SupplierID   string
	BusinessUnit string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("supplier %q: no weight set for business unit %q", e.SupplierID, e.BusinessUnit)
}
