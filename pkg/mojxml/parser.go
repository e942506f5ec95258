// Package mojxml parses the Ministry of Justice registry map XML exchange
// format (地図XML) into an id-indexed geometry graph: shared points, two
// endpoint curves, ringed surfaces and the parcel records that reference
// them.
package mojxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/net/html/charset"
)

// Element and marker literals of the exchange format. Matching is done on
// the namespace-stripped local name.
const (
	elemMap       = "地図"
	elemSpatial   = "空間属性"
	elemThematic  = "主題属性"
	elemSheet     = "図郭"
	elemCRS       = "座標系"
	elemPoint     = "GM_Point"
	elemCurve     = "GM_Curve"
	elemSurface   = "GM_Surface"
	elemDirectPos = "DirectPosition"
	elemPointRef  = "GM_PointRef.point"
	elemDirect    = "GM_Position.direct"
	elemExterior  = "GM_SurfaceBoundary.exterior"
	elemInterior  = "GM_SurfaceBoundary.interior"
	elemGenerator = "GM_CompositeCurve.generator"
	elemFude      = "筆"
	elemShape     = "形状"

	// 筆界未定構成筆: constituent parcels of an undetermined boundary.
	// Present in the wild but carries nothing this pipeline emits.
	elemUndetermined = "筆界未定構成筆"

	arbitraryCRS = "任意座標系"

	markOutsideDistrict = "地区外"
	markSeparateSheet   = "別図"
)

// Thematic records other than 筆 that the format defines but this pipeline
// does not emit. They are scanned past without structural interpretation.
var skippedThematic = map[string]bool{
	"基準点":    true,
	"筆界点":    true,
	"仮行政界線":  true,
	"筆界線":    true,
}

// Parser drives a depth-tracked state machine over the XML token stream of
// one document.
type Parser struct {
	// SkipArbitraryCRS aborts the parse with ErrSkipped as soon as a 座標系
	// declaration reads 任意座標系, before the (much larger) geometry
	// sections are reached.
	SkipArbitraryCRS bool

	dec *xml.Decoder
	doc *Document
}

func NewParser(reader io.Reader) *Parser {
	dec := xml.NewDecoder(reader)
	dec.CharsetReader = charset.NewReaderLabel

	return &Parser{
		dec: dec,
		doc: NewDocument(),
	}
}

// Parse consumes one document from reader and returns its populated tables.
func Parse(reader io.Reader, skipArbitraryCRS bool) (*Document, error) {
	parser := NewParser(reader)
	parser.SkipArbitraryCRS = skipArbitraryCRS
	return parser.Parse()
}

func (p *Parser) Parse() (*Document, error) {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != elemMap {
				return nil, &ErrUnexpectedElement{Element: t.Name.Local, Context: "document root"}
			}
			if err := p.parseMap(); err != nil {
				return nil, err
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, &ErrInvalidText{Element: "document root", Reason: "text outside of any element"}
			}
		}
	}

	return p.doc, nil
}

// parseMap walks the children of the root <地図> element. Unknown children
// (metadata text fields) are skipped structurally: the level counter climbs
// on their start tags and the walk returns when the root's own end tag
// drives it below zero.
func (p *Parser) parseMap() error {
	level := 0

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case elemSpatial:
				if err := p.parseSpatial(); err != nil {
					return err
				}
			case elemThematic:
				if err := p.parseThematic(); err != nil {
					return err
				}
			case elemSheet:
				if err := p.dec.Skip(); err != nil {
					return err
				}
			default:
				if p.SkipArbitraryCRS && t.Name.Local == elemCRS {
					value, err := p.expectText(elemCRS)
					if err != nil {
						return err
					}
					if value == arbitraryCRS {
						return ErrSkipped
					}
				}
				level++
			}
		case xml.EndElement:
			level--
			if level < 0 {
				return nil
			}
		}
	}
}

// expectText returns the next non-whitespace character data, erroring on any
// structural token first. The enclosing element's end tag is left for the
// caller's level counter.
func (p *Parser) expectText(element string) (string, error) {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				return text, nil
			}
		case xml.StartElement:
			return "", &ErrInvalidText{Element: element, Reason: "expected text, found start tag <" + t.Name.Local + ">"}
		case xml.EndElement:
			return "", &ErrInvalidText{Element: element, Reason: "expected text, found end tag"}
		}
	}
}

// parseSpatial iterates the geometry records of <空間属性>. Every child must
// be one of the three known geometry tags and carry an id attribute.
func (p *Parser) parseSpatial() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			id, ok := findAttr(t, "id")
			if !ok {
				return &ErrMissingAttribute{Element: t.Name.Local, Attribute: "id"}
			}

			switch t.Name.Local {
			case elemPoint:
				if err := p.parsePoint(id); err != nil {
					return err
				}
			case elemCurve:
				if err := p.parseCurve(id); err != nil {
					return err
				}
			case elemSurface:
				if err := p.parseSurface(id); err != nil {
					return err
				}
			default:
				return &ErrUnexpectedElement{Element: t.Name.Local, Context: elemSpatial}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// parsePoint records the direct position found anywhere below a <GM_Point>.
// A point without one yields no table entry.
func (p *Parser) parsePoint(id string) error {
	level := 0
	var point *orb.Point

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == elemDirectPos {
				parsed, err := p.parseDirectPosition(elemDirectPos)
				if err != nil {
					return err
				}
				point = &parsed
			} else {
				level++
			}
		case xml.EndElement:
			level--
			if level < 0 {
				if point != nil {
					p.doc.Points[id] = *point
				}
				return nil
			}
		}
	}
}

// parseDirectPosition reads the <X> and <Y> components of a direct position,
// consuming through the enclosing element's end tag.
func (p *Parser) parseDirectPosition(element string) (orb.Point, error) {
	const (
		axisNone = iota
		axisX
		axisY
	)

	mode := axisNone
	var x, y float64
	var haveX, haveY bool

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return orb.Point{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case mode == axisNone && t.Name.Local == "X":
				mode = axisX
			case mode == axisNone && t.Name.Local == "Y":
				mode = axisY
			default:
				return orb.Point{}, &ErrUnexpectedElement{Element: t.Name.Local, Context: element}
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			if mode == axisNone {
				return orb.Point{}, &ErrInvalidText{Element: element, Reason: "text outside of X/Y"}
			}

			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return orb.Point{}, &ErrInvalidText{Element: element, Reason: "not a number: " + text}
			}

			if mode == axisX {
				x, haveX = value, true
			} else {
				y, haveY = value, true
			}
		case xml.EndElement:
			if mode != axisNone {
				mode = axisNone
				continue
			}
			if !haveX || !haveY {
				return orb.Point{}, &ErrMissingChild{Element: element, Child: "X/Y"}
			}
			return orb.Point{x, y}, nil
		}
	}
}

// parseCurve reads the two endpoints of a <GM_Curve>, each either a point
// reference or an inline direct position.
func (p *Parser) parseCurve(id string) error {
	level := 0
	count := 0
	var endpoints Curve

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			level++

			switch t.Name.Local {
			case elemPointRef:
				if count >= 2 {
					return &ErrEndpointCount{CurveID: id, Found: count + 1}
				}
				idref, ok := findAttr(t, "idref")
				if !ok {
					return &ErrMissingAttribute{Element: elemPointRef, Attribute: "idref"}
				}
				endpoints[count] = IndirectRef(idref)
				count++
			case elemDirect:
				if count >= 2 {
					return &ErrEndpointCount{CurveID: id, Found: count + 1}
				}
				level--
				point, err := p.parseDirectPosition(elemDirect)
				if err != nil {
					return err
				}
				endpoints[count] = DirectRef(point)
				count++
			}
		case xml.EndElement:
			level--
			if level < 0 {
				if count != 2 {
					return &ErrEndpointCount{CurveID: id, Found: count}
				}
				p.doc.Curves[id] = endpoints
				return nil
			}
		}
	}
}

// parseSurface reads the boundary rings of a <GM_Surface>. The exterior ring
// lands at index 0 regardless of where it appears among its siblings;
// interior rings keep encounter order.
func (p *Parser) parseSurface(id string) error {
	level := 0
	var exterior []string
	var interiors [][]string
	foundExterior := false

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			level++

			switch t.Name.Local {
			case elemExterior:
				if foundExterior {
					return &ErrExteriorRing{SurfaceID: id, Found: 2}
				}
				level--
				ring, err := p.parseRing()
				if err != nil {
					return err
				}
				exterior = ring
				foundExterior = true
			case elemInterior:
				level--
				ring, err := p.parseRing()
				if err != nil {
					return err
				}
				interiors = append(interiors, ring)
			}
		case xml.EndElement:
			level--
			if level < 0 {
				if !foundExterior {
					return &ErrExteriorRing{SurfaceID: id, Found: 0}
				}
				p.doc.Surfaces[id] = append(Surface{exterior}, interiors...)
				return nil
			}
		}
	}
}

// parseRing collects the ordered curve idrefs named by the ring's generator
// references.
func (p *Parser) parseRing() ([]string, error) {
	level := 0
	var ring []string

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			level++
			if t.Name.Local == elemGenerator {
				if idref, ok := findAttr(t, "idref"); ok {
					ring = append(ring, idref)
				}
			}
		case xml.EndElement:
			level--
			if level < 0 {
				return ring, nil
			}
		}
	}
}

// parseThematic iterates the records of <主題属性>. Parcels are parsed;
// the other known record kinds are scanned past; anything else is an error.
func (p *Parser) parseThematic() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == elemFude:
				id, ok := findAttr(t, "id")
				if !ok {
					return &ErrMissingAttribute{Element: elemFude, Attribute: "id"}
				}
				fude, err := p.parseFude()
				if err != nil {
					return err
				}
				if !excludedChiban(fude.Attributes.Chiban) {
					p.doc.Fudes[id] = *fude
				}
			case skippedThematic[t.Name.Local]:
				if err := p.dec.Skip(); err != nil {
					return err
				}
			default:
				return &ErrUnexpectedElement{Element: t.Name.Local, Context: elemThematic}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// excludedChiban reports whether a lot number marks the parcel as lying
// outside the district (地区外) or drawn on a separate sheet (別図). Such
// parcels carry no geometry usable here and are never inserted.
func excludedChiban(chiban string) bool {
	return strings.Contains(chiban, markOutsideDistrict) ||
		strings.Contains(chiban, markSeparateSheet)
}

// parseFude reads one parcel record: its named text fields plus the
// mandatory surface reference on the <形状> child.
func (p *Parser) parseFude() (*Fude, error) {
	level := 0
	var attrs FudeAttributes
	surfaceID := ""

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case elemShape:
				if idref, ok := findAttr(t, "idref"); ok {
					surfaceID = idref
				}
				level++
			case elemUndetermined:
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
			default:
				value, err := p.expectText(t.Name.Local)
				if err != nil {
					return nil, err
				}
				if err := attrs.set(t.Name.Local, value); err != nil {
					return nil, err
				}
				level++
			}
		case xml.EndElement:
			level--
			if level < 0 {
				if surfaceID == "" {
					return nil, &ErrMissingChild{Element: elemFude, Child: elemShape}
				}
				return &Fude{Attributes: attrs, SurfaceID: surfaceID}, nil
			}
		}
	}
}

func findAttr(element xml.StartElement, name string) (string, bool) {
	for _, attr := range element.Attr {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}
