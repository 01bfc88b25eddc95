package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch means the expected markup was not found on a page the
	// site did return. It usually means the site changed its layout.
	ErrSchemaMismatch = errors.New("expected markup not found")

	// ErrNoOwner is returned by Registry.Resolve when no site claims a URL.
	ErrNoOwner = errors.New("no site owns this url")
)

// FetchError is a transient failure to retrieve a page: transport error,
// timeout or a non-2xx status.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}

	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a fetch failure worth retrying later.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// SchemaError wraps ErrSchemaMismatch with the site and the kind of page.
func SchemaError(site, page string) error {
	return fmt.Errorf("%s %s page: %w", site, page, ErrSchemaMismatch)
}

// OverlapError is returned when two sites claim the same URL space.
type OverlapError struct {
	Site     string
	Existing string
	URL      string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("site %q overlaps with %q on %s", e.Site, e.Existing, e.URL)
}

// LogFailure routes err to the logger with a tag telling transient outages
// apart from layout changes.
func LogFailure(log Logger, site, op string, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, ErrSchemaMismatch):
		log.Warnf("[schema] %s %s: %v (site layout probably changed)", site, op, err)
	case IsTransient(err):
		log.Warnf("[fetch] %s %s: %v", site, op, err)
	default:
		log.Errorf("%s %s: %v", site, op, err)
	}
}
