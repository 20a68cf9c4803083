package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "localapi"

// Chat command kinds accepted on the inbound chat topics.
const (
	ChatKindMessage = "message"
	ChatKindCommand = "command"
)

// Topics builds the gateway's MQTT topics under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "localapi"}
//	topics.Event("position")      // "localapi/events/position"
//	topics.ChatCommand("message") // "localapi/command/chat/message"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// Status returns the retained online/offline status topic.
//
// Example: localapi/status
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// Event returns the topic a stream event is mirrored to.
//
// Example: localapi/events/changeworld
func (t Topics) Event(name string) string {
	return fmt.Sprintf("%s/events/%s", t.prefix(), name)
}

// AllEvents returns a wildcard matching every mirrored event.
//
// Example: localapi/events/+
func (t Topics) AllEvents() string {
	return t.prefix() + "/events/+"
}

// ChatCommand returns the inbound topic for a chat kind.
//
// Example: localapi/command/chat/command
func (t Topics) ChatCommand(kind string) string {
	return fmt.Sprintf("%s/command/chat/%s", t.prefix(), kind)
}

// AllChatCommands returns a wildcard matching every inbound chat topic.
//
// Example: localapi/command/chat/+
func (t Topics) AllChatCommands() string {
	return t.prefix() + "/command/chat/+"
}

// ParseChatCommand extracts the chat kind from an inbound topic.
// It reports false for topics outside the chat hierarchy and for
// unknown kinds.
func (t Topics) ParseChatCommand(topic string) (string, bool) {
	kind, ok := strings.CutPrefix(topic, t.prefix()+"/command/chat/")
	if !ok {
		return "", false
	}
	switch kind {
	case ChatKindMessage, ChatKindCommand:
		return kind, true
	default:
		return "", false
	}
}
