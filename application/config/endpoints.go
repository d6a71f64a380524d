package config

import (
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/iselfietest/cardio-sdk/domain/errors"
)

// Settings holds the deployment URLs of both environments.
type Settings struct {
	BackendURL     string `yaml:"backend_url" json:"backend_url" env:"ISELFIE_BACKEND_URL" env-default:"https://api.iselfietest.com"`
	FrontendURL    string `yaml:"frontend_url" json:"frontend_url" env:"ISELFIE_FRONTEND_URL" env-default:"https://app.iselfietest.com"`
	BackendDevURL  string `yaml:"backend_dev_url" json:"backend_dev_url" env:"ISELFIE_BACKEND_DEV_URL" env-default:"https://api.dev.iselfietest.com"`
	FrontendDevURL string `yaml:"frontend_dev_url" json:"frontend_dev_url" env:"ISELFIE_FRONTEND_DEV_URL" env-default:"https://app.dev.iselfietest.com"`
}

// LoadSettings reads settings from the file at path, or from the
// environment alone when path is empty. Environment variables override
// file values; unset values fall back to the built-in defaults.
func LoadSettings(path string) (*Settings, error) {
	var s Settings
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &s)
	} else {
		err = cleanenv.ReadEnv(&s)
	}
	if err != nil {
		return nil, &errors.ConfigError{Field: "endpoints", Err: err}
	}
	return &s, nil
}

// Endpoints returns the validated URLs for env.
func (s *Settings) Endpoints(env entities.Environment) (entities.Endpoints, error) {
	e := entities.Endpoints{BackendURL: s.BackendURL, FrontendURL: s.FrontendURL}
	if env == entities.EnvironmentDev {
		e = entities.Endpoints{BackendURL: s.BackendDevURL, FrontendURL: s.FrontendDevURL}
	}
	if err := Validate(e); err != nil {
		return entities.Endpoints{}, err
	}
	return e, nil
}
