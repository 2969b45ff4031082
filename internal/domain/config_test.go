package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProvider = "openweathermap"
	testAPIKey   = "owm-test-key"
)

func validSettings() Settings {
	return Settings{
		Provider: testProvider,
		APIKey:   testAPIKey,
		Lat:      "50.45",
		Lon:      "30.52",
	}
}

func TestNewConfiguration(t *testing.T) {
	t.Run("valid settings", func(t *testing.T) {
		s := validSettings()
		s.Units = "si"
		s.Lang = "uk"

		cfg, err := NewConfiguration(s)
		require.NoError(t, err)
		assert.Equal(t, testProvider, cfg.Provider)
		assert.Equal(t, testAPIKey, cfg.APIKey)
		assert.Equal(t, UnitsSI, cfg.Units)
		assert.Equal(t, "uk", cfg.Lang)
		assert.Equal(t, ModeCoordinates, cfg.Location.Mode)
	})

	t.Run("units are optional", func(t *testing.T) {
		cfg, err := NewConfiguration(validSettings())
		require.NoError(t, err)
		assert.Equal(t, UnitsDefault, cfg.Units)
	})

	t.Run("units are case-insensitive", func(t *testing.T) {
		s := validSettings()
		s.Units = "US"
		cfg, err := NewConfiguration(s)
		require.NoError(t, err)
		assert.Equal(t, UnitsUS, cfg.Units)
	})

	t.Run("invalid units", func(t *testing.T) {
		s := validSettings()
		s.Units = "imperial"
		_, err := NewConfiguration(s)
		requireConfigKind(t, err, InvalidUnits)
	})

	t.Run("missing provider", func(t *testing.T) {
		s := validSettings()
		s.Provider = "  "
		_, err := NewConfiguration(s)
		requireConfigKind(t, err, MissingProvider)
	})

	t.Run("missing api key", func(t *testing.T) {
		s := validSettings()
		s.APIKey = ""
		_, err := NewConfiguration(s)
		requireConfigKind(t, err, MissingCredential)
	})

	t.Run("location errors surface unchanged", func(t *testing.T) {
		s := validSettings()
		s.Lat, s.Lon = "", ""
		s.City = "Kyiv"
		_, err := NewConfiguration(s)
		requireConfigKind(t, err, IncompleteLocation)
	})
}

func TestSnapshot(t *testing.T) {
	snap := Snapshot{"temp": 21.5, "humidity": 60.0, "summary": "clear"}

	v, ok := snap.Port("humidity")
	assert.True(t, ok)
	assert.Equal(t, 60.0, v)

	_, ok = snap.Port("pressure")
	assert.False(t, ok)

	assert.Equal(t, []string{"humidity", "summary", "temp"}, snap.Ports())
	assert.False(t, snap.Empty())
	assert.True(t, Snapshot{}.Empty())
	assert.True(t, Snapshot(nil).Empty())

	clone := snap.Clone()
	clone["temp"] = 0.0
	assert.Equal(t, 21.5, snap["temp"], "clone must not alias the original")
	assert.Nil(t, Snapshot(nil).Clone())
}

func TestFetchError(t *testing.T) {
	soft := &FetchError{Kind: FetchSoft, Err: ErrNoData}
	assert.True(t, IsSoftFailure(soft))
	assert.ErrorIs(t, soft, ErrNoData)
	assert.Equal(t, "soft fetch failure: provider returned no data", soft.Error())

	hard := &FetchError{Kind: FetchHard, Err: assert.AnError}
	assert.False(t, IsSoftFailure(hard))
	assert.ErrorIs(t, hard, assert.AnError)
}

func TestInfo(t *testing.T) {
	info := Info()
	assert.Equal(t, "weatherbroker", info.ID)
	assert.Equal(t, "cloud", info.Equipment)
	assert.Equal(t, KnownProviders, info.Providers)

	names := make([]string, 0, len(info.ConfigHelp))
	required := 0
	for _, p := range info.ConfigHelp {
		names = append(names, p.Name)
		if p.Required {
			required++
		}
	}
	assert.Equal(t, []string{"p", "k", "lat", "lon", "city_id", "city", "country", "units", "lang"}, names)
	assert.Equal(t, 2, required)
}
