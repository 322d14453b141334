package settings

import (
	"fmt"
	"strings"
)

// DuplicateNameError is returned when a setting's name collides with
// another entry.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("Duplicate API names are not allowed: %q", e.Name)
}

// ValidationError reports required fields left blank.
type ValidationError struct {
	Setting string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Please fill in all required fields (Name and API Key): missing %s", strings.Join(e.Fields, ", "))
}

// NotFoundError is returned when no setting has the requested name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("API setting %q not found", e.Name)
}

// MigrationError wraps a failure while converting the legacy key.
type MigrationError struct {
	Err error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("failed to migrate legacy API key: %v", e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
