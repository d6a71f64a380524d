package cardio

import (
	"github.com/iselfietest/cardio-sdk/application/config"
	"github.com/iselfietest/cardio-sdk/application/validation"
)

// ValidateConfig decodes and validates a raw initializer object, filling
// defaults for anything it omits.
func ValidateConfig(m Map) (Config, error) {
	return config.FromMap(m)
}

// ValidateJSON checks raw against the published config schema and then
// against the SDK's own rules.
func ValidateJSON(raw []byte) (Config, error) {
	v, err := validation.NewConfigValidator()
	if err != nil {
		return Config{}, err
	}
	result, err := v.Validate(raw)
	if err != nil {
		return Config{}, err
	}
	if err := result.Err(); err != nil {
		return Config{}, err
	}
	return config.FromJSON(raw)
}
