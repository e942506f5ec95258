package mojxml

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapMap(inner string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<地図 xmlns="http://www.moj.go.jp/MINJI/tizuxml">
<版番号>1</版番号>
<座標系>公共座標9系</座標系>
<測地系判別>変換</測地系判別>
` + inner + `
</地図>`
}

func pointXML(id, x, y string) string {
	return `<GM_Point id="` + id + `">
<GM_Point.position>
<DirectPosition>
<X>` + x + `</X>
<Y>` + y + `</Y>
</DirectPosition>
</GM_Point.position>
</GM_Point>`
}

// curveXML nests its endpoints the way real documents do, a few levels below
// the GM_Curve element itself.
func curveXML(id string, endpoints ...string) string {
	var columns strings.Builder
	for _, endpoint := range endpoints {
		columns.WriteString("<GM_PointArray.column>" + endpoint + "</GM_PointArray.column>\n")
	}

	return `<GM_Curve id="` + id + `">
<GM_Curve.segment>
<GM_LineString>
<GM_LineString.controlPoint>
<GM_PointArray>
` + columns.String() + `</GM_PointArray>
</GM_LineString.controlPoint>
</GM_LineString>
</GM_Curve.segment>
</GM_Curve>`
}

func indirect(idref string) string {
	return `<GM_PointRef.point idref="` + idref + `"/>`
}

func direct(x, y string) string {
	return `<GM_Position.direct><X>` + x + `</X><Y>` + y + `</Y></GM_Position.direct>`
}

func ringXML(boundary string, curveIDs ...string) string {
	var generators strings.Builder
	for _, curveID := range curveIDs {
		generators.WriteString(`<GM_CompositeCurve.generator idref="` + curveID + `"/>` + "\n")
	}

	return `<GM_SurfaceBoundary.` + boundary + `>
<GM_Ring>
` + generators.String() + `</GM_Ring>
</GM_SurfaceBoundary.` + boundary + `>`
}

func surfaceXML(id string, rings ...string) string {
	return `<GM_Surface id="` + id + `">
<GM_Surface.patch>
<GM_Polygon>
<GM_Polygon.boundary>
<GM_SurfaceBoundary>
` + strings.Join(rings, "\n") + `
</GM_SurfaceBoundary>
</GM_Polygon.boundary>
</GM_Polygon>
</GM_Surface.patch>
</GM_Surface>`
}

func spatial(inner ...string) string {
	return "<空間属性>\n" + strings.Join(inner, "\n") + "\n</空間属性>"
}

func thematic(inner ...string) string {
	return "<主題属性>\n" + strings.Join(inner, "\n") + "\n</主題属性>"
}

func fudeXML(id, chiban, surfaceID string) string {
	return `<筆 id="` + id + `">
<大字コード>012</大字コード>
<大字名>春日</大字名>
<地番>` + chiban + `</地番>
<精度区分>甲2</精度区分>
<形状 idref="` + surfaceID + `"/>
</筆>`
}

func TestParseFullDocument(t *testing.T) {
	document := wrapMap(
		spatial(
			pointXML("P1", "35.1", "139.2"),
			pointXML("P2", "35.2", "139.3"),
			curveXML("C1", indirect("P1"), indirect("P2")),
			curveXML("C2", indirect("P2"), direct("139.4", "35.3")),
			curveXML("C3", direct("139.4", "35.3"), indirect("P1")),
			surfaceXML("S1",
				ringXML("exterior", "C1", "C2", "C3"),
				ringXML("interior", "C3", "C2", "C1"),
			),
		) + "\n" + thematic(
			fudeXML("F1", "123番", "S1"),
		),
	)

	doc, err := Parse(strings.NewReader(document), true)
	require.NoError(t, err)

	require.Len(t, doc.Points, 2)
	assert.Equal(t, orb.Point{35.1, 139.2}, doc.Points["P1"])
	assert.Equal(t, orb.Point{35.2, 139.3}, doc.Points["P2"])

	require.Len(t, doc.Curves, 3)
	assert.Equal(t, Curve{IndirectRef("P1"), IndirectRef("P2")}, doc.Curves["C1"])
	assert.Equal(t, Curve{IndirectRef("P2"), DirectRef{139.4, 35.3}}, doc.Curves["C2"])
	assert.Equal(t, Curve{DirectRef{139.4, 35.3}, IndirectRef("P1")}, doc.Curves["C3"])

	require.Len(t, doc.Surfaces, 1)
	assert.Equal(t, Surface{
		{"C1", "C2", "C3"},
		{"C3", "C2", "C1"},
	}, doc.Surfaces["S1"])

	require.Len(t, doc.Fudes, 1)
	fude := doc.Fudes["F1"]
	assert.Equal(t, "S1", fude.SurfaceID)
	assert.Equal(t, "012", fude.Attributes.OazaCode)
	assert.Equal(t, "春日", fude.Attributes.Oaza)
	assert.Equal(t, "123番", fude.Attributes.Chiban)
	assert.Equal(t, "甲2", fude.Attributes.AccuracyClass)
	assert.Empty(t, fude.Attributes.KoazaCode)
}

func TestParseExteriorRingAlwaysFirst(t *testing.T) {
	document := wrapMap(spatial(
		surfaceXML("S1",
			ringXML("interior", "C9"),
			ringXML("exterior", "C1", "C2"),
		),
	))

	doc, err := Parse(strings.NewReader(document), false)
	require.NoError(t, err)

	require.Equal(t, Surface{
		{"C1", "C2"},
		{"C9"},
	}, doc.Surfaces["S1"])
}

func TestParseUnknownRootElement(t *testing.T) {
	_, err := Parse(strings.NewReader(`<html></html>`), false)

	var unexpected *ErrUnexpectedElement
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "html", unexpected.Element)
}

func TestParseCurveEndpointCount(t *testing.T) {
	for _, tc := range []struct {
		name      string
		endpoints []string
		wantErr   bool
	}{
		{"zero", nil, true},
		{"one", []string{indirect("P1")}, true},
		{"two", []string{indirect("P1"), indirect("P2")}, false},
		{"three", []string{indirect("P1"), indirect("P2"), indirect("P3")}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			document := wrapMap(spatial(curveXML("C1", tc.endpoints...)))

			doc, err := Parse(strings.NewReader(document), false)
			if tc.wantErr {
				var count *ErrEndpointCount
				require.ErrorAs(t, err, &count)
				assert.Equal(t, "C1", count.CurveID)
			} else {
				require.NoError(t, err)
				assert.Contains(t, doc.Curves, "C1")
			}
		})
	}
}

func TestParseSurfaceMissingExterior(t *testing.T) {
	document := wrapMap(spatial(
		surfaceXML("S1", ringXML("interior", "C1")),
	))

	_, err := Parse(strings.NewReader(document), false)

	var exterior *ErrExteriorRing
	require.ErrorAs(t, err, &exterior)
	assert.Equal(t, "S1", exterior.SurfaceID)
	assert.Equal(t, 0, exterior.Found)
}

func TestParseSurfaceDuplicateExterior(t *testing.T) {
	document := wrapMap(spatial(
		surfaceXML("S1",
			ringXML("exterior", "C1"),
			ringXML("exterior", "C2"),
		),
	))

	_, err := Parse(strings.NewReader(document), false)

	var exterior *ErrExteriorRing
	require.ErrorAs(t, err, &exterior)
	assert.Equal(t, 2, exterior.Found)
}

func TestParsePointWithoutDirectPosition(t *testing.T) {
	document := wrapMap(spatial(
		`<GM_Point id="P9"><GM_Point.position></GM_Point.position></GM_Point>`,
	))

	doc, err := Parse(strings.NewReader(document), false)
	require.NoError(t, err)
	assert.Empty(t, doc.Points)
}

func TestParsePointInvalidCoordinate(t *testing.T) {
	document := wrapMap(spatial(pointXML("P1", "abc", "139.2")))

	_, err := Parse(strings.NewReader(document), false)

	var invalid *ErrInvalidText
	require.ErrorAs(t, err, &invalid)
}

func TestParsePointMissingComponent(t *testing.T) {
	document := wrapMap(spatial(
		`<GM_Point id="P1"><GM_Point.position><DirectPosition><X>35.1</X></DirectPosition></GM_Point.position></GM_Point>`,
	))

	_, err := Parse(strings.NewReader(document), false)

	var missing *ErrMissingChild
	require.ErrorAs(t, err, &missing)
}

func TestParseSpatialMissingID(t *testing.T) {
	document := wrapMap(spatial(`<GM_Point><DirectPosition><X>1</X><Y>2</Y></DirectPosition></GM_Point>`))

	_, err := Parse(strings.NewReader(document), false)

	var missing *ErrMissingAttribute
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "id", missing.Attribute)
}

func TestParseSpatialUnknownElement(t *testing.T) {
	document := wrapMap(spatial(`<GM_Sphere id="X1"></GM_Sphere>`))

	_, err := Parse(strings.NewReader(document), false)

	var unexpected *ErrUnexpectedElement
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "GM_Sphere", unexpected.Element)
}

func TestParseChibanExclusion(t *testing.T) {
	for _, tc := range []struct {
		name   string
		chiban string
		kept   bool
	}{
		{"outside district", "地区外", false},
		{"separate sheet marker", "12番別図", false},
		{"plain lot number", "123番", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			document := wrapMap(thematic(fudeXML("F1", tc.chiban, "S1")))

			doc, err := Parse(strings.NewReader(document), false)
			require.NoError(t, err)

			if tc.kept {
				assert.Contains(t, doc.Fudes, "F1")
			} else {
				assert.NotContains(t, doc.Fudes, "F1")
			}
		})
	}
}

func TestParseSkipArbitraryCRS(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8"?>
<地図>
<版番号>1</版番号>
<座標系>任意座標系</座標系>
` + spatial(pointXML("P1", "35.1", "139.2")) + `
</地図>`

	_, err := Parse(strings.NewReader(document), true)
	require.ErrorIs(t, err, ErrSkipped)

	doc, err := Parse(strings.NewReader(document), false)
	require.NoError(t, err)
	assert.Len(t, doc.Points, 1)
}

func TestParseFudeUnknownField(t *testing.T) {
	document := wrapMap(thematic(
		`<筆 id="F1"><謎属性>x</謎属性><形状 idref="S1"/></筆>`,
	))

	_, err := Parse(strings.NewReader(document), false)

	var unexpected *ErrUnexpectedElement
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "謎属性", unexpected.Element)
}

func TestParseFudeMissingShape(t *testing.T) {
	document := wrapMap(thematic(
		`<筆 id="F1"><地番>1番</地番></筆>`,
	))

	_, err := Parse(strings.NewReader(document), false)

	var missing *ErrMissingChild
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, elemShape, missing.Child)
}

func TestParseFudeUndeterminedBoundarySkipped(t *testing.T) {
	document := wrapMap(thematic(
		`<筆 id="F1">
<地番>5番</地番>
<筆界未定構成筆><筆参照 idref="F2"/><筆参照 idref="F3"/></筆界未定構成筆>
<形状 idref="S1"/>
</筆>`,
	))

	doc, err := Parse(strings.NewReader(document), false)
	require.NoError(t, err)

	fude := doc.Fudes["F1"]
	assert.Equal(t, "5番", fude.Attributes.Chiban)
	assert.Equal(t, "S1", fude.SurfaceID)
}

func TestParseThematicSkippedRecords(t *testing.T) {
	document := wrapMap(thematic(
		`<基準点 id="K1"><名称>x</名称></基準点>`,
		`<筆界点 id="K2"><名称>y</名称></筆界点>`,
		`<仮行政界線 id="K3"><種別>z</種別></仮行政界線>`,
		`<筆界線 id="K4"><筆界点参照 idref="K2"/></筆界線>`,
		fudeXML("F1", "7番", "S1"),
	))

	doc, err := Parse(strings.NewReader(document), false)
	require.NoError(t, err)
	assert.Len(t, doc.Fudes, 1)
}

func TestParseThematicUnknownRecord(t *testing.T) {
	document := wrapMap(thematic(`<謎主題 id="Z1"></謎主題>`))

	_, err := Parse(strings.NewReader(document), false)

	var unexpected *ErrUnexpectedElement
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "謎主題", unexpected.Element)
}

func TestParseMalformedXML(t *testing.T) {
	_, err := Parse(strings.NewReader(`<地図><空間属性>`), false)
	require.Error(t, err)
}
