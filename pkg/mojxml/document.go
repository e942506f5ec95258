package mojxml

import (
	"github.com/paulmach/orb"
)

// Document holds everything parsed out of one registry map XML file. All
// identifiers are local to the document they were parsed from; two documents
// may reuse the same id for unrelated geometry.
type Document struct {
	Points   map[string]orb.Point
	Curves   map[string]Curve
	Surfaces map[string]Surface
	Fudes    map[string]Fude
}

func NewDocument() *Document {
	return &Document{
		Points:   map[string]orb.Point{},
		Curves:   map[string]Curve{},
		Surfaces: map[string]Surface{},
		Fudes:    map[string]Fude{},
	}
}

// Curve is a boundary edge with exactly two endpoints.
type Curve [2]PointRef

// Surface is an ordered list of rings, each ring an ordered list of curve
// ids. Ring 0 is always the exterior boundary; any further rings are holes.
type Surface [][]string

// Fude is a single cadastral parcel (筆): its attribute record plus the id
// of the surface that bounds it.
type Fude struct {
	Attributes FudeAttributes
	SurfaceID  string
}

// FudeAttributes are the parcel's business attributes. Every field is
// optional in the source format; absent fields stay "".
type FudeAttributes struct {
	OazaCode      string // 大字コード
	ChomeCode     string // 丁目コード
	KoazaCode     string // 小字コード
	SpareCode     string // 予備コード
	Oaza          string // 大字名
	Chome         string // 丁目名
	Koaza         string // 小字名
	Spare         string // 予備名
	Chiban        string // 地番
	AccuracyClass string // 精度区分
	CoordClass    string // 座標値種別
}

func (a *FudeAttributes) set(field string, value string) error {
	switch field {
	case "大字コード":
		a.OazaCode = value
	case "丁目コード":
		a.ChomeCode = value
	case "小字コード":
		a.KoazaCode = value
	case "予備コード":
		a.SpareCode = value
	case "大字名":
		a.Oaza = value
	case "丁目名":
		a.Chome = value
	case "小字名":
		a.Koaza = value
	case "予備名":
		a.Spare = value
	case "地番":
		a.Chiban = value
	case "精度区分":
		a.AccuracyClass = value
	case "座標値種別":
		a.CoordClass = value
	default:
		return &ErrUnexpectedElement{Element: field, Context: elemFude}
	}
	return nil
}
