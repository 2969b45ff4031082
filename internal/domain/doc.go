// Package domain models the weather broker adapter: its configuration,
// location modes, snapshots and the collaborator contracts the driver
// depends on.
//
// # Configuration
//
// The host controller supplies a flat set of string keys:
//
//	p        provider id (openweathermap, weatherbit, darksky)   required
//	k        provider API key                                     required
//	lat/lon  coordinates                                          optional pair
//	city_id  provider city id                                     optional
//	city     city name                                            optional pair
//	country  country name or code                                 optional pair
//	units    si | us                                              optional
//	lang     provider-specific language code                      optional
//
// [NewConfiguration] validates the keys once and produces an immutable
// [Configuration]. Failures are [*ConfigError] values carrying a
// [ConfigErrorKind].
//
// # Location Precedence
//
// Exactly one location mode is used. Groups are evaluated top to bottom and
// the first one that is present wins:
//
//	1. lat + lon      → coordinates (both must parse as floats)
//	2. city_id        → city id (must parse as an integer)
//	3. city + country → city/country, used verbatim
//
// A group that is present but partial (lat without lon, city without
// country) or unparsable is an error. It does not fall through to the next
// group, so a typo in lat never silently turns into a city lookup.
//
// # Snapshots and Ports
//
// A [Snapshot] is the flat map returned by one successful provider fetch.
// Port names are provider-defined and not known in advance; an unknown
// port is simply absent from the map.
//
// # Fetch Failures
//
// [FetchError] separates a soft failure (provider reachable, empty result,
// cause [ErrNoData]) from a hard one (network, decode or provider error).
// The host-facing driver reports both as "no value"; logs and metrics keep
// the distinction.
package domain
