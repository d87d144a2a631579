package tools

import (
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Args is the argument object every tool takes when called as a function.
type Args struct {
	Query string `json:"query" jsonschema:"the input for the tool"`
}

// Definition describes a tool as a model function.
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

var (
	argsSchemaOnce sync.Once
	argsSchema     *jsonschema.Schema
	argsSchemaErr  error
)

// ArgsSchema returns the JSON schema of Args.
func ArgsSchema() (*jsonschema.Schema, error) {
	argsSchemaOnce.Do(func() {
		argsSchema, argsSchemaErr = jsonschema.For[Args](nil)
	})
	return argsSchema, argsSchemaErr
}

// Definitions builds the function definitions of tools.
func Definitions(tools []Tool) ([]Definition, error) {
	schema, err := ArgsSchema()
	if err != nil {
		return nil, err
	}
	defs := make([]Definition, len(tools))
	for i, t := range tools {
		defs[i] = Definition{Name: t.Name(), Description: t.Description(), Parameters: schema}
	}
	return defs, nil
}

// ParametersJSON encodes the parameter schema for transports that take raw JSON.
func (d Definition) ParametersJSON() (json.RawMessage, error) {
	return json.Marshal(d.Parameters)
}
