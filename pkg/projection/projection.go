// Package projection defines the coordinate transform contract between
// resolved parcel geometry and whatever re-projection the caller supplies.
// The math itself lives outside this module.
package projection

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Zones is the number of plane rectangular coordinate system zones (平面直角
// 座標系の系番号) defined for Japan.
const Zones = 19

// Func re-projects a (x, y)-ordered coordinate out of the given zone.
// Implementations must be pure and safe for concurrent use.
type Func func(point orb.Point, zone int) (orb.Point, error)

// Passthrough leaves coordinates untouched.
func Passthrough(point orb.Point, zone int) (orb.Point, error) {
	return point, nil
}

// ZoneEPSG returns the JGD2011 plane rectangular EPSG code for a zone.
func ZoneEPSG(zone int) (int, error) {
	if zone < 1 || zone > Zones {
		return 0, fmt.Errorf("projection: zone %d out of range 1..%d", zone, Zones)
	}
	// EPSG:6669 is zone I (系1).
	return 6668 + zone, nil
}
