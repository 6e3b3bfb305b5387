package protocol

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/subscribe.schema.json
var subscribeSchemaSrc string

//go:embed schemas/control.schema.json
var controlSchemaSrc string

var (
	subscribeSchema = mustCompile("subscribe.schema.json", subscribeSchemaSrc)
	controlSchema   = mustCompile("control.schema.json", controlSchemaSrc)
)

func mustCompile(name, src string) *jsonschema.Schema {
	s, err := jsonschema.CompileString(name, src)
	if err != nil {
		panic(fmt.Sprintf("protocol: compile %s: %v", name, err))
	}
	return s
}

func validate(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

// ValidateSubscribe checks a raw SUBSCRIBE frame against its schema.
func ValidateSubscribe(raw []byte) error { return validate(subscribeSchema, raw) }

// ValidateControl checks a raw CONTROL frame against its schema.
func ValidateControl(raw []byte) error { return validate(controlSchema, raw) }
