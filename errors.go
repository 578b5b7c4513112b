package rodl

import "fmt"

// StatusError is returned when the remote service answers with a status code
// outside of the set an operation expects.
type StatusError struct {
	Operation  string
	StatusCode int
	Reason     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected response %d %s", e.Operation, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%s: unexpected response %d %s: %s", e.Operation, e.StatusCode, e.Reason, e.Body)
}

// InvalidManifestError is raised when a research object is not described in its
// own manifest.
type InvalidManifestError struct {
	URI    string
	Reason string
}

func (e InvalidManifestError) Error() string {
	if e.URI == "" {
		return "invalid manifest"
	}
	return fmt.Sprintf("invalid manifest for %s: %s", e.URI, e.Reason)
}

// Is enables errors.Is matching on InvalidManifestError.
func (e InvalidManifestError) Is(target error) bool {
	_, ok := target.(InvalidManifestError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidManifestError)
	return ok
}

// NotLoadedError signals access to data that is only available after Load.
type NotLoadedError struct {
	Object string
}

func (e NotLoadedError) Error() string {
	if e.Object == "" {
		return "object not loaded"
	}
	return fmt.Sprintf("%s not loaded", e.Object)
}

// Is enables errors.Is matching on NotLoadedError.
func (e NotLoadedError) Is(target error) bool {
	_, ok := target.(NotLoadedError)
	if ok {
		return true
	}
	_, ok = target.(*NotLoadedError)
	return ok
}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

var (
	// ErrInvalidManifest is the sentinel for InvalidManifestError.
	ErrInvalidManifest = InvalidManifestError{}
	// ErrNotLoaded is the sentinel for NotLoadedError.
	ErrNotLoaded = NotLoadedError{}
	// ErrNotFound is the sentinel error for missing resources.
	ErrNotFound = NotFoundError{}
)
