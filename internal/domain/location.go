package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// LocationMode tags which variant of LocationSpec is populated.
type LocationMode int

const (
	ModeCoordinates LocationMode = iota + 1
	ModeCityID
	ModeCityCountry
)

func (m LocationMode) String() string {
	switch m {
	case ModeCoordinates:
		return "coordinates"
	case ModeCityID:
		return "city_id"
	case ModeCityCountry:
		return "city_country"
	default:
		return "unknown"
	}
}

// LocationSpec is a resolved location. Only the fields belonging to Mode are
// meaningful; build it with ResolveLocation.
type LocationSpec struct {
	Mode    LocationMode `json:"mode"`
	Lat     float64      `json:"lat,omitempty"`
	Lon     float64      `json:"lon,omitempty"`
	CityID  int64        `json:"city_id,omitempty"`
	City    string       `json:"city,omitempty"`
	Country string       `json:"country,omitempty"`
}

func (l LocationSpec) String() string {
	switch l.Mode {
	case ModeCoordinates:
		return fmt.Sprintf("lat=%g,lon=%g", l.Lat, l.Lon)
	case ModeCityID:
		return fmt.Sprintf("city_id=%d", l.CityID)
	case ModeCityCountry:
		return fmt.Sprintf("city=%s,country=%s", l.City, l.Country)
	default:
		return "unresolved"
	}
}

// ResolveLocation picks exactly one location mode from the raw settings.
//
// Precedence is lat/lon, then city_id, then city/country. A group that is
// partially given or fails to parse is an error; it never falls through to
// a lower tier.
func ResolveLocation(s Settings) (LocationSpec, error) {
	lat, lon := strings.TrimSpace(s.Lat), strings.TrimSpace(s.Lon)
	cityID := strings.TrimSpace(s.CityID)
	city, country := strings.TrimSpace(s.City), strings.TrimSpace(s.Country)

	switch {
	case lat != "" || lon != "":
		return resolveCoordinates(lat, lon)
	case cityID != "":
		id, err := strconv.ParseInt(cityID, 10, 64)
		if err != nil {
			return LocationSpec{}, configError(InvalidCityID, "city_id", err)
		}
		return LocationSpec{Mode: ModeCityID, CityID: id}, nil
	case city != "" || country != "":
		if city == "" {
			return LocationSpec{}, configError(IncompleteLocation, "city", nil)
		}
		if country == "" {
			return LocationSpec{}, configError(IncompleteLocation, "country", nil)
		}
		return LocationSpec{Mode: ModeCityCountry, City: city, Country: country}, nil
	default:
		return LocationSpec{}, configError(NoLocationSpecified, "", nil)
	}
}

func resolveCoordinates(lat, lon string) (LocationSpec, error) {
	if lat == "" {
		return LocationSpec{}, configError(IncompleteLocation, "lat", nil)
	}
	if lon == "" {
		return LocationSpec{}, configError(IncompleteLocation, "lon", nil)
	}
	latV, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return LocationSpec{}, configError(InvalidCoordinates, "lat", err)
	}
	lonV, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return LocationSpec{}, configError(InvalidCoordinates, "lon", err)
	}
	return LocationSpec{Mode: ModeCoordinates, Lat: latV, Lon: lonV}, nil
}
