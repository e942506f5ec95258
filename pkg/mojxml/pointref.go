package mojxml

import (
	"github.com/paulmach/orb"
)

// PointRef is a curve endpoint: either a coordinate carried inline or a
// reference into the document's shared point table. These are the only two
// encodings the format uses.
type PointRef interface {
	pointRef()
}

// DirectRef is an endpoint carried inline, already in (x, y) axis order.
type DirectRef orb.Point

// IndirectRef names an entry in the document's point table.
type IndirectRef string

func (DirectRef) pointRef()   {}
func (IndirectRef) pointRef() {}
