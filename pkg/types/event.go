package types

// EventType defines the type of event emitted by a chat session.
type EventType string

const (
	EventTypeSuccess        EventType = "success"         // EventTypeSuccess carries a transient confirmation for the user.
	EventTypeError          EventType = "error"           // EventTypeError carries a recoverable failure for the user.
	EventTypeSendingChange  EventType = "sending_change"  // EventTypeSendingChange reports a change in the session's sending status.
	EventTypeMessageAdded   EventType = "message_added"   // EventTypeMessageAdded reports a message appended to the history.
	EventTypeHistoryClear   EventType = "history_clear"   // EventTypeHistoryClear reports that the history was emptied.
	EventTypePageContent    EventType = "page_content"    // EventTypePageContent reports refreshed page content.
	EventTypeProviderSwitch EventType = "provider_switch" // EventTypeProviderSwitch reports a change of the active setting.
)

// Event represents a notification emitted by a chat session.
//
// Success and error events are meant to be shown as transient
// notifications (toasts); they never block the conversation.
type Event struct {
	// Err holds the underlying error for error events.
	Err error

	// Message is the human-readable text to display.
	Message string

	// ChatMessage is set for message-added events.
	ChatMessage *Message

	// Type indicates the kind of event.
	Type EventType

	// IsSending reports the sending status for sending-change events.
	IsSending bool
}

// NewSuccessEvent creates a success notification.
func NewSuccessEvent(message string) *Event {
	return &Event{
		Type:    EventTypeSuccess,
		Message: message,
	}
}

// NewErrorEvent creates an error notification carrying err's message.
func NewErrorEvent(err error) *Event {
	return &Event{
		Type:    EventTypeError,
		Message: ErrorMessage(err),
		Err:     err,
	}
}

// NewErrorMessageEvent creates an error notification from a display message.
func NewErrorMessageEvent(message string) *Event {
	return &Event{
		Type:    EventTypeError,
		Message: message,
	}
}

// NewSendingChangeEvent creates an event reporting the sending status.
func NewSendingChangeEvent(sending bool) *Event {
	return &Event{
		Type:      EventTypeSendingChange,
		IsSending: sending,
	}
}

// NewMessageAddedEvent creates an event for a message appended to the history.
func NewMessageAddedEvent(msg Message) *Event {
	return &Event{
		Type:        EventTypeMessageAdded,
		ChatMessage: &msg,
	}
}

// NewHistoryClearEvent creates an event reporting an emptied history.
func NewHistoryClearEvent() *Event {
	return &Event{Type: EventTypeHistoryClear}
}

// NewPageContentEvent creates an event reporting the title of refreshed page content.
func NewPageContentEvent(title string) *Event {
	return &Event{
		Type:    EventTypePageContent,
		Message: title,
	}
}

// NewProviderSwitchEvent creates an event naming the newly active setting.
func NewProviderSwitchEvent(name string) *Event {
	return &Event{
		Type:    EventTypeProviderSwitch,
		Message: name,
	}
}

// IsError returns true if this is an error event.
func (e *Event) IsError() bool {
	return e.Type == EventTypeError
}

// ErrorMessage returns a display string for err.
func ErrorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "An unexpected error occurred"
	}
	return err.Error()
}
