package mojxml

import (
	"errors"
	"fmt"
)

// ErrSkipped reports that the document declared an arbitrary coordinate
// system and parsing stopped before any geometry was read. It is a signal,
// not a failure: the document simply contributes nothing.
var ErrSkipped = errors.New("mojxml: document uses an arbitrary coordinate system")

// ErrUnexpectedElement indicates a tag outside the known subset of the
// format, at a position that only accepts known tags.
type ErrUnexpectedElement struct {
	Element string
	Context string
}

func (e *ErrUnexpectedElement) Error() string {
	return fmt.Sprintf("mojxml: unexpected element <%s> in %s", e.Element, e.Context)
}

// ErrMissingAttribute indicates an element without a required attribute.
type ErrMissingAttribute struct {
	Element   string
	Attribute string
}

func (e *ErrMissingAttribute) Error() string {
	return fmt.Sprintf("mojxml: element <%s> is missing attribute %q", e.Element, e.Attribute)
}

// ErrMissingChild indicates an element without a required child element.
type ErrMissingChild struct {
	Element string
	Child   string
}

func (e *ErrMissingChild) Error() string {
	return fmt.Sprintf("mojxml: element <%s> is missing child <%s>", e.Element, e.Child)
}

// ErrInvalidText indicates text content that is malformed or misplaced.
type ErrInvalidText struct {
	Element string
	Reason  string
}

func (e *ErrInvalidText) Error() string {
	return fmt.Sprintf("mojxml: invalid text in <%s>: %s", e.Element, e.Reason)
}

// ErrEndpointCount indicates a curve with anything other than two endpoints.
type ErrEndpointCount struct {
	CurveID string
	Found   int
}

func (e *ErrEndpointCount) Error() string {
	return fmt.Sprintf("mojxml: curve %s has %d endpoints, expected exactly 2", e.CurveID, e.Found)
}

// ErrExteriorRing indicates a surface without exactly one exterior ring.
type ErrExteriorRing struct {
	SurfaceID string
	Found     int
}

func (e *ErrExteriorRing) Error() string {
	return fmt.Sprintf("mojxml: surface %s has %d exterior rings, expected exactly 1", e.SurfaceID, e.Found)
}

// LookupError indicates a dangling identifier found while resolving a
// surface. Kind is one of "surface", "curve" or "point".
type LookupError struct {
	Kind string
	ID   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("mojxml: %s id=%s not found", e.Kind, e.ID)
}
