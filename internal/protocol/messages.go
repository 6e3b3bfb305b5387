package protocol

import "robosoccer/internal/sim"

// SUBSCRIBE (client -> server). EveryTicks thins the state stream; zero
// means every tick.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	EveryTicks      int    `json:"every_ticks,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	Match           MatchParams `json:"match_params"`
}

type MatchParams struct {
	TickHz      float64 `json:"tick_hz"`
	FieldLength float64 `json:"field_length"`
	FieldWidth  float64 `json:"field_width"`
	GoalWidth   float64 `json:"goal_width"`
	RobotRadius float64 `json:"robot_radius"`
}

// STATE (server -> client), one per streamed tick.
type StateMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Snapshot        sim.Snapshot `json:"snapshot"`
}

// CONTROL (client -> server). The coordinate fields only apply to
// PLACE_BALL and are given in the true frame.
type ControlMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Op              string  `json:"op"`
	X               float64 `json:"x,omitempty"`
	Y               float64 `json:"y,omitempty"`
	VX              float64 `json:"vx,omitempty"`
	VY              float64 `json:"vy,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type string `json:"type"`
	Op   string `json:"op"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}
