package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// CallbackAction is the typed action carried in inline-button callback data.
type CallbackAction string

const (
	ActionGetLink CallbackAction = "g" // deliver the link privately
)

// Callback is the decoded payload of an inline keyboard button.
// Telegram limits callback data to 64 bytes, so the wire format is a short
// prefix plus the numeric link id: "g:42".
type Callback struct {
	Action CallbackAction
	LinkId int64
}

// Pack encodes the callback for the wire.
func (c Callback) Pack() string {
	return fmt.Sprintf("%s:%d", c.Action, c.LinkId)
}

// ParseCallback decodes callback data strictly: unknown actions and
// malformed ids are errors, not silently ignored prefixes.
func ParseCallback(data string) (Callback, error) {
	action, rest, found := strings.Cut(data, ":")
	if !found {
		return Callback{}, fmt.Errorf("callback data without separator: %q", data)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return Callback{}, fmt.Errorf("callback link id %q: %w", rest, err)
	}
	switch CallbackAction(action) {
	case ActionGetLink:
		return Callback{Action: ActionGetLink, LinkId: id}, nil
	default:
		return Callback{}, fmt.Errorf("unknown callback action: %q", action)
	}
}
