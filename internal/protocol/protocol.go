package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeWelcome   = "WELCOME"
	TypeState     = "STATE"
	TypeControl   = "CONTROL"
	TypeAck       = "ACK"
	TypeError     = "ERROR"
)

// Control operations carried by a CONTROL message. The two GK placements
// are canned debug drops in front of either keeper; PLACE_BALL takes
// explicit coordinates.
const (
	OpPause           = "PAUSE"
	OpResume          = "RESUME"
	OpReset           = "RESET"
	OpPlaceBall       = "PLACE_BALL"
	OpPlaceBallBlueGK = "PLACE_BALL_BLUE_GK"
	OpPlaceBallRedGK  = "PLACE_BALL_RED_GK"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
