package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every *ConfigError via errors.Is.
	ErrConfig = errors.New("invalid adapter configuration")

	// ErrNoData is the cause of a soft fetch failure: the provider answered
	// but returned nothing.
	ErrNoData = errors.New("provider returned no data")

	// ErrUnknownProvider is returned by ProviderClient.Configure for a provider
	// id the client does not recognise.
	ErrUnknownProvider = errors.New("unknown weather provider")
)

// ConfigErrorKind classifies construction-time failures.
type ConfigErrorKind int

const (
	NoLocationSpecified ConfigErrorKind = iota + 1
	InvalidCoordinates
	InvalidCityID
	IncompleteLocation
	UnknownProvider
	ProviderRejected
	MissingProvider
	MissingCredential
	InvalidUnits
)

func (k ConfigErrorKind) String() string {
	switch k {
	case NoLocationSpecified:
		return "no location specified"
	case InvalidCoordinates:
		return "invalid coordinates"
	case InvalidCityID:
		return "invalid city id"
	case IncompleteLocation:
		return "incomplete location"
	case UnknownProvider:
		return "unknown provider"
	case ProviderRejected:
		return "provider configuration rejected"
	case MissingProvider:
		return "missing provider"
	case MissingCredential:
		return "missing api key"
	case InvalidUnits:
		return "invalid units"
	default:
		return fmt.Sprintf("config error %d", int(k))
	}
}

// ConfigError is a fatal configuration failure. An adapter that hits one at
// construction stays not-ready for its whole lifetime.
type ConfigError struct {
	Kind  ConfigErrorKind
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConfig) match any ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func configError(kind ConfigErrorKind, field string, err error) *ConfigError {
	return &ConfigError{Kind: kind, Field: field, Err: err}
}

// FetchFailureKind separates "provider reachable, no data" from
// "provider unreachable or broken".
type FetchFailureKind int

const (
	FetchSoft FetchFailureKind = iota + 1
	FetchHard
)

func (k FetchFailureKind) String() string {
	switch k {
	case FetchSoft:
		return "soft"
	case FetchHard:
		return "hard"
	default:
		return "unknown"
	}
}

// FetchError is the failure result of one fetch cycle. The host-facing
// driver collapses both kinds to "no value"; callers that need the
// distinction inspect Kind.
type FetchError struct {
	Kind FetchFailureKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failure: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsSoftFailure reports whether err is a FetchError of kind FetchSoft.
func IsSoftFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchSoft
}
