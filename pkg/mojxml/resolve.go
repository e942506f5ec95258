package mojxml

import (
	"github.com/paulmach/orb"
)

// ResolveSurface materialises a surface into rings of coordinates, exterior
// ring first. For each curve in a ring only the first endpoint contributes a
// vertex; the second is supplied by the next curve in the ring, or by
// wraparound to the ring's first vertex.
//
// Inline endpoints are already in (x, y) axis order and pass through
// unchanged. Shared point-table entries are stored in (y, x) order and are
// swapped on lookup. The two sub-formats genuinely encode their axes
// differently; both behaviors must be kept as-is.
func (d *Document) ResolveSurface(surfaceID string) ([]orb.Ring, error) {
	surface, ok := d.Surfaces[surfaceID]
	if !ok {
		return nil, &LookupError{Kind: "surface", ID: surfaceID}
	}

	rings := make([]orb.Ring, 0, len(surface))
	for _, curveIDs := range surface {
		ring := make(orb.Ring, 0, len(curveIDs))

		for _, curveID := range curveIDs {
			curve, ok := d.Curves[curveID]
			if !ok {
				return nil, &LookupError{Kind: "curve", ID: curveID}
			}

			switch ref := curve[0].(type) {
			case DirectRef:
				ring = append(ring, orb.Point(ref))
			case IndirectRef:
				point, ok := d.Points[string(ref)]
				if !ok {
					return nil, &LookupError{Kind: "point", ID: string(ref)}
				}
				ring = append(ring, orb.Point{point[1], point[0]})
			}
		}

		rings = append(rings, ring)
	}

	return rings, nil
}

// ResolvePolygon resolves a surface into an orb polygon.
func (d *Document) ResolvePolygon(surfaceID string) (orb.Polygon, error) {
	rings, err := d.ResolveSurface(surfaceID)
	if err != nil {
		return nil, err
	}
	return orb.Polygon(rings), nil
}
