// Package config turns the host page's initializer object into a
// validated entities.Config and loads deployment endpoints.
package config

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/iselfietest/cardio-sdk/domain/errors"
)

// Map is the initializer object as decoded from the host page.
type Map = map[string]any

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Defaults returns the configuration used for keys the host omits.
func Defaults() entities.Config {
	return entities.Config{
		Options:     entities.DefaultOptions(),
		ContainerID: entities.DefaultContainerID,
		Environment: entities.EnvironmentProd,
	}
}

// FromMap builds a Config from m. Missing or null keys keep their
// defaults; explicit values, including false, are kept as given.
func FromMap(m Map) (entities.Config, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return entities.Config{}, &errors.ConfigError{Err: fmt.Errorf("failed to marshal config map: %w", err)}
	}
	return FromJSON(raw)
}

// FromJSON is FromMap for an already encoded object. An empty containerId
// falls back to the default and any environment other than dev means prod.
func FromJSON(raw []byte) (entities.Config, error) {
	cfg := Defaults()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stdErrors.As(err, &typeErr) {
			return entities.Config{}, &errors.ConfigError{Field: typeErr.Field, Err: fmt.Errorf("must be a %s", typeErr.Type.Kind())}
		}
		return entities.Config{}, &errors.ConfigError{Err: err}
	}
	if cfg.ContainerID == "" {
		cfg.ContainerID = entities.DefaultContainerID
	}
	if cfg.Environment != entities.EnvironmentDev {
		cfg.Environment = entities.EnvironmentProd
	}
	if err := Validate(cfg); err != nil {
		return entities.Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags of v, which is usually an
// entities.Config or entities.Endpoints. The first failing field is
// reported as a *errors.ConfigError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &errors.ConfigError{Field: fe.Field(), Err: stdErrors.New(describe(fe))}
	}
	return &errors.ConfigError{Err: err}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_without":
		return "apiKey or accessToken is required"
	case "excluded_with":
		return "apiKey and accessToken cannot both be set"
	case "required_with":
		return "organizationId is required when using an access token"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
