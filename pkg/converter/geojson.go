package converter

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONSink collects parcel features into a GeoJSON FeatureCollection and
// writes it out on Close.
type GeoJSONSink struct {
	writer     io.Writer
	collection *geojson.FeatureCollection
}

func NewGeoJSONSink(writer io.Writer) *GeoJSONSink {
	return &GeoJSONSink{
		writer:     writer,
		collection: geojson.NewFeatureCollection(),
	}
}

func (s *GeoJSONSink) Add(id string, geometry orb.Polygon, props map[string]string) error {
	feature := geojson.NewFeature(geometry)
	feature.ID = id
	feature.Properties["id"] = id

	for _, column := range PropertyColumns {
		if value, ok := props[column]; ok {
			feature.Properties[column] = value
		}
	}

	s.collection.Append(feature)
	return nil
}

func (s *GeoJSONSink) Close() error {
	data, err := s.collection.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = s.writer.Write(data)
	return err
}
