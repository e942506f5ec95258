// Package converter drives the whole pipeline: walk a distribution bundle,
// parse each registry map document, resolve each parcel's polygon, project
// it and append it to a feature sink.
package converter

import (
	"bytes"
	"errors"
	"io"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/fudemap/fudemap/pkg/mojxml"
	"github.com/fudemap/fudemap/pkg/projection"
	"github.com/fudemap/fudemap/pkg/zippack"
)

// Options controls one conversion run.
type Options struct {
	// Workers is the number of archive extraction goroutines.
	Workers int

	// Zone selects the plane rectangular coordinate system zone handed to
	// the projection.
	Zone int

	// SkipArbitraryCRS discards documents declaring 任意座標系 before their
	// geometry is parsed.
	SkipArbitraryCRS bool

	// Projection re-projects every resolved vertex. Defaults to
	// projection.Passthrough.
	Projection projection.Func
}

// Stats summarises a conversion run.
type Stats struct {
	// Documents successfully parsed.
	Documents int
	// Skipped documents (arbitrary coordinate system).
	Skipped int
	// Failed archive entries and unparseable documents.
	Failed int
	// Features appended to the sink.
	Features int
	// Dangling parcels dropped because a surface, curve or point reference
	// could not be resolved, or because projection failed.
	Dangling int
}

// ConvertFile converts the bundle at path, appending every parcel feature to
// sink. Per-entry, per-document and per-parcel failures are logged and
// counted, never fatal; only opening the bundle or a sink failure aborts.
func ConvertFile(path string, sink FeatureSink, opts Options) (Stats, error) {
	stream, err := zippack.WalkFile(path, zippack.Options{Workers: opts.Workers})
	if err != nil {
		return Stats{}, err
	}
	defer stream.Close()

	return drain(stream, sink, opts)
}

// Convert converts a bundle already held in a random-access byte source.
func Convert(ra io.ReaderAt, size int64, sink FeatureSink, opts Options) (Stats, error) {
	stream, err := zippack.Walk(ra, size, zippack.Options{Workers: opts.Workers})
	if err != nil {
		return Stats{}, err
	}
	defer stream.Close()

	return drain(stream, sink, opts)
}

func drain(stream *zippack.Stream, sink FeatureSink, opts Options) (Stats, error) {
	if opts.Projection == nil {
		opts.Projection = projection.Passthrough
	}

	var stats Stats

	for entry := range stream.Entries() {
		if entry.Err != nil {
			log.Error().Err(entry.Err).Str("entry", entry.Name).Msg("Failed to read archive entry")
			stats.Failed++
			continue
		}

		document, err := mojxml.Parse(bytes.NewReader(entry.Data), opts.SkipArbitraryCRS)
		if errors.Is(err, mojxml.ErrSkipped) {
			log.Debug().Str("document", entry.Name).Msg("Skipped arbitrary coordinate system document")
			stats.Skipped++
			continue
		} else if err != nil {
			log.Error().Err(err).Str("document", entry.Name).Msg("Failed to parse document")
			stats.Failed++
			continue
		}

		log.Debug().
			Str("document", entry.Name).
			Int("points", len(document.Points)).
			Int("curves", len(document.Curves)).
			Int("surfaces", len(document.Surfaces)).
			Int("fudes", len(document.Fudes)).
			Msg("Parsed document")
		stats.Documents++

		if err := emit(document, entry.Name, sink, opts, &stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// emit resolves and appends every parcel of one document. A dangling
// reference drops that parcel only; a sink error is fatal.
func emit(document *mojxml.Document, name string, sink FeatureSink, opts Options, stats *Stats) error {
	ids := maps.Keys(document.Fudes)
	slices.Sort(ids)

	for _, id := range ids {
		fude := document.Fudes[id]

		polygon, err := document.ResolvePolygon(fude.SurfaceID)
		if err != nil {
			log.Warn().Err(err).Str("document", name).Str("fude", id).Msg("Dropping parcel with dangling reference")
			stats.Dangling++
			continue
		}

		projected, err := projectPolygon(polygon, opts.Projection, opts.Zone)
		if err != nil {
			log.Warn().Err(err).Str("document", name).Str("fude", id).Msg("Dropping parcel that failed projection")
			stats.Dangling++
			continue
		}

		if err := sink.Add(id, projected, properties(fude.Attributes)); err != nil {
			return err
		}
		stats.Features++
	}

	return nil
}

func projectPolygon(polygon orb.Polygon, project projection.Func, zone int) (orb.Polygon, error) {
	projected := make(orb.Polygon, len(polygon))

	for i, ring := range polygon {
		projectedRing := make(orb.Ring, len(ring))
		for j, point := range ring {
			p, err := project(point, zone)
			if err != nil {
				return nil, err
			}
			projectedRing[j] = p
		}
		projected[i] = projectedRing
	}

	return projected, nil
}
