// Package validation checks raw host configuration against the
// generated config schema and reports field-level issues.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/iselfietest/cardio-sdk/application/schema"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
)

const configResource = "iselfietest-config.json"

// Issue is one schema violation.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a validation.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`
	Valid  bool    `json:"valid"`
}

// Err returns nil for a valid result, otherwise a *errors.ConfigError for
// the first issue.
func (r *Result) Err() error {
	if r.Valid || len(r.Issues) == 0 {
		return nil
	}
	first := r.Issues[0]
	return &sdkerrors.ConfigError{Field: first.Field, Err: errors.New(first.Message)}
}

// ConfigValidator validates initializer objects.
type ConfigValidator struct {
	schema *jsonschema.Schema
}

// NewConfigValidator compiles the config schema.
func NewConfigValidator() (*ConfigValidator, error) {
	raw, err := schema.ConfigSchema()
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(configResource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	sch, err := compiler.Compile(configResource)
	if err != nil {
		return nil, fmt.Errorf("invalid config schema: %w", err)
	}
	return &ConfigValidator{schema: sch}, nil
}

// Validate checks raw, a JSON object. A malformed document is an error;
// schema violations are reported in the Result.
func (v *ConfigValidator) Validate(raw []byte) (*Result, error) {
	var obj interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &sdkerrors.ConfigError{Err: fmt.Errorf("failed to prepare validation object: %w", err)}
	}

	result := &Result{Valid: true}
	err := v.schema.Validate(obj)
	if err == nil {
		return result, nil
	}

	result.Valid = false
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		result.Issues = append(result.Issues, Issue{Message: err.Error()})
		return result, nil
	}
	for _, be := range ve.BasicOutput().Errors {
		if be.Error == "" || strings.HasPrefix(be.Error, "doesn't validate with") {
			continue
		}
		result.Issues = append(result.Issues, Issue{Field: fieldName(be.InstanceLocation), Message: be.Error})
	}
	if len(result.Issues) == 0 {
		result.Issues = append(result.Issues, Issue{Message: ve.Error()})
	}
	return result, nil
}

// fieldName turns a JSON pointer like "/options/isDarkMode" into
// "options.isDarkMode".
func fieldName(pointer string) string {
	return strings.ReplaceAll(strings.TrimPrefix(pointer, "/"), "/", ".")
}
