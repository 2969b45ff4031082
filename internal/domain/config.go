package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Units selects the provider-side unit system.
type Units string

const (
	UnitsDefault Units = ""
	UnitsSI      Units = "si"
	UnitsUS      Units = "us"
)

// Settings is the adapter configuration exactly as the host hands it over.
// Every field is a string; an empty value means the key was not supplied.
type Settings struct {
	Provider string `yaml:"p" json:"p" validate:"required"`
	APIKey   string `yaml:"k" json:"k" validate:"required"`
	Lat      string `yaml:"lat" json:"lat,omitempty"`
	Lon      string `yaml:"lon" json:"lon,omitempty"`
	CityID   string `yaml:"city_id" json:"city_id,omitempty"`
	City     string `yaml:"city" json:"city,omitempty"`
	Country  string `yaml:"country" json:"country,omitempty"`
	Units    string `yaml:"units" json:"units,omitempty" validate:"omitempty,oneof=si us"`
	Lang     string `yaml:"lang" json:"lang,omitempty"`
}

// Configuration is the validated, typed form of Settings. It never changes
// after construction.
type Configuration struct {
	Provider string
	APIKey   string
	Lang     string
	Units    Units
	Location LocationSpec
}

var validate = validator.New()

// NewConfiguration validates raw settings and resolves the location.
// Every failure is a *ConfigError.
func NewConfiguration(s Settings) (Configuration, error) {
	s.Provider = strings.TrimSpace(s.Provider)
	s.APIKey = strings.TrimSpace(s.APIKey)
	s.Units = strings.ToLower(strings.TrimSpace(s.Units))
	s.Lang = strings.TrimSpace(s.Lang)

	if err := validate.Struct(s); err != nil {
		return Configuration{}, settingsError(err)
	}

	loc, err := ResolveLocation(s)
	if err != nil {
		return Configuration{}, err
	}

	return Configuration{
		Provider: s.Provider,
		APIKey:   s.APIKey,
		Lang:     s.Lang,
		Units:    Units(s.Units),
		Location: loc,
	}, nil
}

func settingsError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return configError(MissingProvider, "", err)
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "Provider":
		return configError(MissingProvider, "p", nil)
	case "APIKey":
		return configError(MissingCredential, "k", nil)
	default:
		return configError(InvalidUnits, "units", errors.New("must be one of si, us"))
	}
}
