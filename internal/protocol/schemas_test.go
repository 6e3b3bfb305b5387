package protocol

import (
	"encoding/json"
	"testing"
)

func TestValidateSubscribe(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"minimal", `{"type":"SUBSCRIBE","protocol_version":"1.0"}`, true},
		{"with cadence", `{"type":"SUBSCRIBE","protocol_version":"1.0","every_ticks":6}`, true},
		{"wrong type", `{"type":"HELLO","protocol_version":"1.0"}`, false},
		{"missing version", `{"type":"SUBSCRIBE"}`, false},
		{"cadence too high", `{"type":"SUBSCRIBE","protocol_version":"1.0","every_ticks":100000}`, false},
		{"unknown field", `{"type":"SUBSCRIBE","protocol_version":"1.0","extra":1}`, false},
		{"not json", `{{`, false},
	}
	for _, tc := range cases {
		err := ValidateSubscribe([]byte(tc.raw))
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: validation passed, want failure", tc.name)
		}
	}
}

func TestValidateControl(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"pause", `{"type":"CONTROL","protocol_version":"1.0","op":"PAUSE"}`, true},
		{"resume", `{"type":"CONTROL","protocol_version":"1.0","op":"RESUME"}`, true},
		{"reset", `{"type":"CONTROL","protocol_version":"1.0","op":"RESET"}`, true},
		{"place ball", `{"type":"CONTROL","protocol_version":"1.0","op":"PLACE_BALL","x":1.5,"y":-0.5,"vx":2,"vy":0}`, true},
		{"blue gk drop", `{"type":"CONTROL","protocol_version":"1.0","op":"PLACE_BALL_BLUE_GK"}`, true},
		{"red gk drop", `{"type":"CONTROL","protocol_version":"1.0","op":"PLACE_BALL_RED_GK"}`, true},
		{"unknown op", `{"type":"CONTROL","protocol_version":"1.0","op":"EXPLODE"}`, false},
		{"missing op", `{"type":"CONTROL","protocol_version":"1.0"}`, false},
		{"coordinate off the map", `{"type":"CONTROL","protocol_version":"1.0","op":"PLACE_BALL","x":500,"y":0}`, false},
		{"unknown field", `{"type":"CONTROL","protocol_version":"1.0","op":"PAUSE","speed":2}`, false},
	}
	for _, tc := range cases {
		err := ValidateControl([]byte(tc.raw))
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: validation passed, want failure", tc.name)
		}
	}
}

func TestDecodeBaseRoutesByType(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"CONTROL","protocol_version":"1.0","op":"PAUSE"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != TypeControl || m.ProtocolVersion != Version {
		t.Fatalf("base = %+v", m)
	}
	if _, err := DecodeBase([]byte(`nope`)); err == nil {
		t.Fatalf("garbage must not decode")
	}
}

func TestControlMessageMatchesSchema(t *testing.T) {
	// The typed message must serialize into something its own schema accepts.
	msg := ControlMsg{Type: TypeControl, ProtocolVersion: Version, Op: OpPlaceBall, X: 1, Y: 2, VX: 0.5, VY: -0.5}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := ValidateControl(raw); err != nil {
		t.Fatalf("typed control rejected by its schema: %v\n%s", err, raw)
	}
}
