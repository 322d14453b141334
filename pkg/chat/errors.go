package chat

import "fmt"

// SettingNotFoundError is returned when switching to a setting name that
// does not exist.
type SettingNotFoundError struct {
	Name string
}

func (e *SettingNotFoundError) Error() string {
	return fmt.Sprintf("API setting %q not found", e.Name)
}

// NoActiveSettingError is returned when a message is sent before any API
// setting has been configured.
type NoActiveSettingError struct{}

func (e *NoActiveSettingError) Error() string {
	return "No API setting selected. Add one in Settings first."
}
