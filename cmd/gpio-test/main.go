// Command gpio-test walks the HUB75 pins one at a time, driving each high
// for an interval, so the wiring can be checked with a probe or an LED.
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

	"github.com/fkcurrie/ledcat-golang/pkg/gpio"
	"github.com/fkcurrie/ledcat-golang/pkg/hub75"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "gpio-test:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		backend  string
		chip     string
		pins     []int
		interval time.Duration
		loop     bool
	)
	def := hub75.DefaultConfig()

	cmd := &cobra.Command{
		Use:          "gpio-test",
		Short:        "Toggle GPIO lines one by one to verify panel wiring",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := gpio.NewRequester(gpio.Backend(backend), chip)
			if err != nil {
				return err
			}
			names := pinNames(def)
			if cmd.Flags().Changed("pins") {
				names = make(map[int]string)
			}
			for {
				if err := walk(cmd.Context(), req, pins, names, interval); err != nil {
					return err
				}
				if !loop {
					return nil
				}
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&backend, "backend", string(gpio.BackendCdev), "GPIO backend: cdev or sysfs")
	f.StringVar(&chip, "chip", gpio.DefaultChip, "GPIO chip for the cdev backend")
	f.IntSliceVar(&pins, "pins", pinList(def), "pins to toggle, in order")
	f.DurationVar(&interval, "interval", time.Second, "how long each pin stays high")
	f.BoolVar(&loop, "loop", false, "repeat until interrupted")
	return cmd
}

func walk(ctx context.Context, req gpio.Requester, pins []int, names map[int]string, interval time.Duration) error {
	for _, pin := range pins {
		line, err := req(pin)
		if err != nil {
			return fmt.Errorf("failed to request pin %d: %w", pin, err)
		}
		err = pulse(ctx, line, interval)
		log.Info().Int("pin", pin).Str("signal", names[pin]).Err(err).Msg("toggled")
		if cerr := line.Close(); cerr != nil {
			log.Warn().Err(cerr).Int("pin", pin).Msg("failed to release line")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func pulse(ctx context.Context, line gpio.Output, d time.Duration) error {
	if err := line.SetValue(1); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	if err := line.SetValue(0); err != nil {
		return err
	}
	return ctx.Err()
}

func pinList(c hub75.Config) []int {
	pins := append([]int{}, c.LevelSelect...)
	for i := range c.Red {
		pins = append(pins, c.Red[i], c.Green[i], c.Blue[i])
	}
	return append(pins, c.Clock, c.Latch, c.OutputEnable)
}

func pinNames(c hub75.Config) map[int]string {
	names := map[int]string{
		c.Clock:        "CLK",
		c.Latch:        "LAT",
		c.OutputEnable: "OE",
	}
	for i, p := range c.LevelSelect {
		names[p] = string(rune('A' + i))
	}
	for i := range c.Red {
		names[c.Red[i]] = fmt.Sprintf("R%d", i+1)
		names[c.Green[i]] = fmt.Sprintf("G%d", i+1)
		names[c.Blue[i]] = fmt.Sprintf("B%d", i+1)
	}
	return names
}
