package eventbus

import (
	"fmt"
	"strings"
)

// streamNameFor returns the stream carrying eventType, e.g.
// "expense-events:record:created".
func streamNameFor(prefix, eventType string) string {
	return nameFor(prefix, eventType)
}

func dlqStreamName(prefix, eventType string) string {
	return nameFor(prefix+"-dlq", eventType)
}

// groupNameFor gives each event type its own consumer group so handlers of
// different types never steal each other's messages.
func groupNameFor(group, eventType string) string {
	return nameFor(group, eventType)
}

func nameFor(prefix, eventType string) string {
	parts := strings.Split(eventType, ".")
	if len(parts) == 2 {
		return fmt.Sprintf("%s:%s:%s", prefix, strings.ToLower(parts[0]), strings.ToLower(parts[1]))
	}
	return fmt.Sprintf("%s:%s", prefix, strings.ToLower(eventType))
}
