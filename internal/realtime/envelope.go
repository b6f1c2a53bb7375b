package realtime

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

// Frame types sent to kiosk displays.
const (
	TypeView    = "view"
	TypeCommand = "command"
)

// Display commands carried in a "command" frame.
const (
	CommandFullscreenEnter = "fullscreen.enter"
	CommandFullscreenExit  = "fullscreen.exit"
	CommandSoundPlay       = "sound.play"
)

// Envelope is a single websocket frame. IDs are ULIDs so displays can
// drop duplicates and order frames without a clock of their own.
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Command struct {
	Name  string `json:"name"`
	Sound string `json:"sound,omitempty"`
}

// Encode wraps payload in a new envelope and returns the wire bytes.
func Encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		ID:      ulid.Make().String(),
		Type:    typ,
		Payload: raw,
	})
}
