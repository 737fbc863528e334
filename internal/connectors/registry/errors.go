package registry

import "errors"

// Error kinds shared by every connector. Callers match them with errors.Is;
// concrete failures wrap one of these with context.
var (
	ErrInvalidArgument            = errors.New("invalid argument")
	ErrNotFound                   = errors.New("not found")
	ErrProviderCredentialsInvalid = errors.New("provider rejected credentials")
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
	ErrNoProviderRegistered       = errors.New("no provider registered")
	ErrPersistence                = errors.New("persistence failure")
)

// ErrorKind names the error class of err for logs, metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrProviderCredentialsInvalid):
		return "provider_credentials_invalid"
	case errors.Is(err, ErrExternalServiceUnavailable):
		return "external_service_unavailable"
	case errors.Is(err, ErrNoProviderRegistered):
		return "no_provider_registered"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "internal"
	}
}
