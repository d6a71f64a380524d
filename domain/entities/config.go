package entities

// Environment selects the backend/frontend deployment the SDK talks to.
type Environment string

const (
	EnvironmentDev  Environment = "dev"
	EnvironmentProd Environment = "prod"
)

// DefaultContainerID is the element id the frame mounts into when the host
// page does not name one.
const DefaultContainerID = "iselfietest"

// Config is the host-facing initializer configuration.
// Exactly one of APIKey and AccessToken must be set.
type Config struct {
	Options        Options     `json:"options"`
	Styles         Styles      `json:"styles"`
	APIKey         string      `json:"apiKey,omitempty" validate:"required_without=AccessToken,excluded_with=AccessToken"`
	AccessToken    string      `json:"accessToken,omitempty" validate:"required_without=APIKey"`
	AppUserID      string      `json:"appUserId,omitempty"`
	OrganizationID string      `json:"organizationId,omitempty" validate:"required_with=AccessToken"`
	ContainerID    string      `json:"containerId" validate:"required"`
	Environment    Environment `json:"environment" validate:"oneof=dev prod" jsonschema:"enum=dev,enum=prod"`
}

// Credentials derives the backend credentials from the configuration.
func (c Config) Credentials() Credentials {
	if c.AccessToken != "" {
		return NewAccessTokenCredentials(c.AccessToken, c.OrganizationID)
	}
	return NewAPIKeyCredentials(c.APIKey, c.OrganizationID)
}

// Options are feature switches forwarded verbatim to the test frame.
type Options struct {
	Timezone         string `json:"timezone"`
	Language         string `json:"language"`
	DisplayResults   bool   `json:"displayResults"`
	EnablePDFSharing bool   `json:"enablePDFSharing"`
	DisableAudio     bool   `json:"disableAudio"`
	IsDarkMode       bool   `json:"isDarkMode"`
}

// DefaultOptions returns the options used when the host page omits them.
func DefaultOptions() Options {
	return Options{
		Timezone:   "Etc/UTC",
		Language:   "en",
		IsDarkMode: true,
	}
}

// Styles are colour overrides applied inside the test frame.
type Styles struct {
	PageBackgroundColor       string `json:"pageBackgroundColor,omitempty"`
	CardBackgroundColor       string `json:"cardBackgroundColor,omitempty"`
	CardHeaderBackgroundColor string `json:"cardHeaderBackgroundColor,omitempty"`
	PrimaryTextColor          string `json:"primaryTextColor,omitempty"`
	SecondaryTextColor        string `json:"secondaryTextColor,omitempty"`
	ButtonColor               string `json:"buttonColor,omitempty"`
	ButtonTextColor           string `json:"buttonTextColor,omitempty"`
	IconColor                 string `json:"iconColor,omitempty"`
}

// CSSVariables maps the styles onto the frame's CSS custom properties.
// The button colour also drives the focus border.
func (s Styles) CSSVariables() map[string]string {
	return map[string]string{
		"--background-pages":          s.PageBackgroundColor,
		"--background-card":           s.CardBackgroundColor,
		"--background-card-title":     s.CardHeaderBackgroundColor,
		"--text-primary":              s.PrimaryTextColor,
		"--text-secondary":            s.SecondaryTextColor,
		"--button-primary-background": s.ButtonColor,
		"--border-focused":            s.ButtonColor,
		"--button-primary-text":       s.ButtonTextColor,
		"--icon-primary-background":   s.IconColor,
	}
}

// Endpoints are the deployment URLs for one environment.
type Endpoints struct {
	BackendURL  string `json:"backend_url" validate:"required,url"`
	FrontendURL string `json:"frontend_url" validate:"required,url"`
}
