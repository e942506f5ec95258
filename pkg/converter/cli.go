package converter

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a registry map XML bundle into GeoJSON parcel features",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Usage: "Path of the .zip bundle",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Path of the .geojson file to write",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of extraction workers (0 = number of CPUs)",
			},
			&cli.IntFlag{
				Name:  "zone",
				Usage: "Plane rectangular coordinate system zone (1-19)",
			},
			&cli.BoolFlag{
				Name:  "keep-arbitrary-crs",
				Usage: "Also convert documents declared in an arbitrary coordinate system",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path of a YAML run manifest (overrides the other flags)",
			},
		},
		Action: func(c *cli.Context) error {
			config := &Config{
				Input:            c.String("input"),
				Output:           c.String("output"),
				Workers:          c.Int("workers"),
				Zone:             c.Int("zone"),
				KeepArbitraryCRS: c.Bool("keep-arbitrary-crs"),
			}

			if manifest := c.String("config"); manifest != "" {
				var err error
				config, err = LoadConfig(manifest)
				if err != nil {
					return err
				}
			} else if err := config.Validate(); err != nil {
				return err
			}

			output, err := os.Create(config.Output)
			if err != nil {
				return err
			}
			defer output.Close()

			sink := NewGeoJSONSink(output)

			stats, err := ConvertFile(config.Input, sink, Options{
				Workers:          config.Workers,
				Zone:             config.Zone,
				SkipArbitraryCRS: !config.KeepArbitraryCRS,
			})
			if err != nil {
				return err
			}

			if err := sink.Close(); err != nil {
				return err
			}

			log.Info().
				Int("documents", stats.Documents).
				Int("features", stats.Features).
				Int("skipped", stats.Skipped).
				Int("failed", stats.Failed).
				Int("dangling", stats.Dangling).
				Msg("Conversion complete")

			return nil
		},
	}
}
