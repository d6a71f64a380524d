// Package schema provides JSON schema generation for the SDK's host
// configuration and frame protocol messages.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/iselfietest/cardio-sdk/domain/entities"
)

// Schema names accepted by Named.
const (
	NameConfig  = "config"
	NameInit    = "init"
	NameInbound = "inbound"
)

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12). Fields without
// omitempty are required.
func GenerateSchema(v interface{}) ([]byte, error) {
	return generate(&jsonschema.Reflector{ExpandedStruct: true}, v)
}

// ConfigSchema describes the initializer object a host page passes in.
// Every key is optional since omitted keys take defaults.
func ConfigSchema() ([]byte, error) {
	return generate(&jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}, &entities.Config{})
}

// InitMessageSchema describes the message posted to the test frame.
func InitMessageSchema() ([]byte, error) {
	return GenerateSchema(&entities.InitMessage{})
}

// inboundEnvelope mirrors the messages the frame posts back.
type inboundEnvelope struct {
	Type entities.MessageType `json:"type" jsonschema:"enum=iselfietest-sdk-ack,enum=iselfietest-close,enum=iselfietest-complete,enum=iselfietest-error"`
	Data any                  `json:"data,omitempty"`
}

// InboundMessageSchema describes messages accepted from the test frame.
func InboundMessageSchema() ([]byte, error) {
	return GenerateSchema(&inboundEnvelope{})
}

var named = map[string]func() ([]byte, error){
	NameConfig:  ConfigSchema,
	NameInit:    InitMessageSchema,
	NameInbound: InboundMessageSchema,
}

// Names lists the schemas available from Named.
func Names() []string {
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Named returns the schema registered under name.
func Named(name string) ([]byte, error) {
	fn, ok := named[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q (available: %v)", name, Names())
	}
	return fn()
}

func generate(reflector *jsonschema.Reflector, v interface{}) ([]byte, error) {
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}
