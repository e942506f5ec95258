package converter

import (
	"github.com/paulmach/orb"

	"github.com/fudemap/fudemap/pkg/mojxml"
)

// PropertyColumns is the fixed, ordered property schema of emitted parcel
// features. A key absent from a feature's properties was absent in the
// source record.
var PropertyColumns = []string{
	"id",
	"大字コード",
	"丁目コード",
	"小字コード",
	"予備コード",
	"大字名",
	"丁目名",
	"小字名",
	"予備名",
	"地番",
	"精度区分",
	"座標値種別",
}

// FeatureSink receives fully resolved parcel polygons. Implementations own
// the output container format; the pipeline only appends through this
// interface.
type FeatureSink interface {
	Add(id string, geometry orb.Polygon, properties map[string]string) error
	Close() error
}

// properties maps a parcel's attributes onto the PropertyColumns keys,
// omitting fields that were absent in the source.
func properties(attrs mojxml.FudeAttributes) map[string]string {
	props := map[string]string{}

	set := func(key, value string) {
		if value != "" {
			props[key] = value
		}
	}

	set("大字コード", attrs.OazaCode)
	set("丁目コード", attrs.ChomeCode)
	set("小字コード", attrs.KoazaCode)
	set("予備コード", attrs.SpareCode)
	set("大字名", attrs.Oaza)
	set("丁目名", attrs.Chome)
	set("小字名", attrs.Koaza)
	set("予備名", attrs.Spare)
	set("地番", attrs.Chiban)
	set("精度区分", attrs.AccuracyClass)
	set("座標値種別", attrs.CoordClass)

	return props
}
