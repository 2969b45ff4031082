package domain

// Known provider ids accepted by the gateway client.
const (
	ProviderOpenWeatherMap = "openweathermap"
	ProviderWeatherbit     = "weatherbit"
	ProviderDarkSky        = "darksky"
)

// KnownProviders lists the provider ids in display order.
var KnownProviders = []string{ProviderOpenWeatherMap, ProviderWeatherbit, ProviderDarkSky}

// ConfigParam documents one configuration key for the host's UI.
type ConfigParam struct {
	Name     string `json:"name"`
	Help     string `json:"help"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// ModuleInfo describes the adapter to the host controller.
type ModuleInfo struct {
	ID          string        `json:"id"`
	Version     string        `json:"version"`
	Author      string        `json:"author"`
	License     string        `json:"license"`
	Description string        `json:"description"`
	Equipment   string        `json:"equipment"`
	API         int           `json:"api"`
	LPIDefault  string        `json:"lpi_default"`
	Features    []string      `json:"features"`
	Providers   []string      `json:"providers"`
	ConfigHelp  []ConfigParam `json:"config_help"`
	Help        string        `json:"help"`
}

const moduleHelp = `Weather broker, collects current conditions through a weather aggregation
gateway from:

* openweathermap: https://openweathermap.org/
* weatherbit: https://www.weatherbit.io/
* darksky: https://darksky.net/

Specify either lat/lon or city_id or city/country. Port names are the keys
of the provider response.`

// Info returns the static module descriptor.
func Info() ModuleInfo {
	return ModuleInfo{
		ID:          "weatherbroker",
		Version:     "1.0.0",
		Author:      "couchcryptid",
		License:     "Apache-2.0",
		Description: "Weather Broker",
		Equipment:   "cloud",
		API:         1,
		LPIDefault:  "sensor",
		Features:    []string{"port_get", "aao_get", "cache"},
		Providers:   append([]string(nil), KnownProviders...),
		ConfigHelp: []ConfigParam{
			{Name: "p", Help: "weather provider", Type: "str", Required: true},
			{Name: "k", Help: "API key", Type: "str", Required: true},
			{Name: "lat", Help: "Latitude", Type: "float"},
			{Name: "lon", Help: "Longitude", Type: "float"},
			{Name: "city_id", Help: "City ID", Type: "int"},
			{Name: "city", Help: "City name", Type: "str"},
			{Name: "country", Help: "Country name", Type: "str"},
			{Name: "units", Help: "Units (si or us)", Type: "enum:str:si,us"},
			{Name: "lang", Help: "Language code (provider specific)", Type: "str"},
		},
		Help: moduleHelp,
	}
}
