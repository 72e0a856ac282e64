package hierarchy

import (
	"errors"
	"fmt"
)

// Error codes attached to hierarchy errors.
// LIN001-LIN009: initialization
// LIN010-LIN019: lookup
// LIN020-LIN029: build diagnostics
const (
	CodeNotInitialized = "LIN001"
	CodeAnchorMissing  = "LIN002"
	CodeAlreadyBuilt   = "LIN003"

	CodeNotFound = "LIN010"

	CodeLoadFailure   = "LIN020"
	CodeAmbiguousName = "LIN021"
	CodeDuplicateName = "LIN022"
	CodeDanglingBase  = "LIN023"
	CodeCycle         = "LIN024"
	CodeUnknownOrigin = "LIN025"
)

// Sentinel errors for errors.Is checks.
var (
	ErrNotInitialized = errors.New("type registry not initialized")
	ErrNotFound       = errors.New("class not found")
	ErrLoadFailed     = errors.New("script descriptor failed to load")
)

// InitializationError reports that the registry cannot answer queries:
// it was never built, or the build could not locate the anchor class.
// Every query issued after a failed build returns the same error.
type InitializationError struct {
	Code   string
	Reason string
	Err    error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Unwrap returns the underlying cause
func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Is matches ErrNotInitialized
func (e *InitializationError) Is(target error) bool {
	return target == ErrNotInitialized
}

// NotFoundError reports a name that does not exist in the expected partition.
// Origin is OriginNone when every partition was searched.
type NotFoundError struct {
	Origin Origin
	Name   string
}

func (e *NotFoundError) Error() string {
	if e.Origin == OriginNone {
		return fmt.Sprintf("%s: class %q not found in any partition", CodeNotFound, e.Name)
	}
	return fmt.Sprintf("%s: class %q not found in %s partition", CodeNotFound, e.Name, e.Origin)
}

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LoadFailure reports a single scripted descriptor that could not be loaded.
// It never aborts a build; the class is simply absent from its partition.
type LoadFailure struct {
	Name string
	Path string
	Err  error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("%s: failed to load %q from %s: %v", CodeLoadFailure, e.Name, e.Path, e.Err)
}

// Unwrap returns the underlying cause
func (e *LoadFailure) Unwrap() error {
	return e.Err
}

// Is matches ErrLoadFailed
func (e *LoadFailure) Is(target error) bool {
	return target == ErrLoadFailed
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotInitialized reports whether err is (or wraps) an InitializationError.
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// Diagnostic is a non-fatal build finding.
type Diagnostic struct {
	Code    string `json:"code"`
	Origin  Origin `json:"origin"`
	Class   string `json:"class,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// String implements fmt.Stringer
func (d Diagnostic) String() string {
	if d.Class == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", d.Code, d.Origin, d.Class, d.Message)
}
