// Command svgframe renders an SVG file into raw RGB frames on stdout.
//
//	svgframe -g 64x32 logo.svg | ledcat show -g 64x32
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fkcurrie/ledcat-golang/internal/geometry"
	"github.com/fkcurrie/ledcat-golang/pkg/svgframe"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "svgframe:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		geom   string
		count  int
		rate   float64
		strict bool
	)
	cmd := &cobra.Command{
		Use:          "svgframe [flags] file.svg",
		Short:        "Rasterize an SVG into RGB frames for ledcat",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := geometry.Resolve(geom)
			if err != nil {
				return err
			}
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			f, err := svgframe.Render(in, g, svgframe.Options{Strict: strict})
			if err != nil {
				return err
			}
			log.Debug().Str("file", args[0]).Str("geometry", g.String()).Msg("rendered")

			var tick <-chan time.Time
			if rate > 0 {
				t := time.NewTicker(time.Duration(float64(time.Second) / rate))
				defer t.Stop()
				tick = t.C
			}
			ctx := cmd.Context()
			for i := 0; count <= 0 || i < count; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := os.Stdout.Write(f); err != nil {
					return err
				}
				if tick == nil {
					continue
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-tick:
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&geom, "geometry", "g", "", "display geometry, N or WxH (default $"+geometry.EnvVar+")")
	f.IntVarP(&count, "count", "n", 1, "number of frames to write, 0 to repeat forever")
	f.Float64VarP(&rate, "framerate", "f", 0, "frames per second when repeating")
	f.BoolVar(&strict, "strict", false, "fail on unsupported SVG elements")
	return cmd
}
