package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/device/artnet"
	"github.com/fkcurrie/ledcat-golang/internal/device/nrzled"
	"github.com/fkcurrie/ledcat-golang/internal/device/terminal"
	"github.com/fkcurrie/ledcat-golang/internal/device/ws281x"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
	"github.com/fkcurrie/ledcat-golang/pkg/gpio"
	"github.com/fkcurrie/ledcat-golang/pkg/hub75"
)

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Render frames in the terminal using truecolor escape codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), device.KindShow, func(g geometry.Geometry) (device.Driver, error) {
				return terminal.New(g, c.stdout), nil
			})
		},
	}
}

func (c *CLI) rawCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "raw",
		Short: "Write transposed frames unchanged to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("output") {
				c.cfg.Raw.Output = output
			}
			return c.run(cmd.Context(), device.KindRaw, func(g geometry.Geometry) (device.Driver, error) {
				return device.OpenRaw(g, c.cfg.Raw.Output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func (c *CLI) artnetCommand() *cobra.Command {
	var (
		targets    []string
		targetList string
		broadcast  bool
		universe   int
		discover   bool
		wait       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "artnet",
		Short: "Send frames as Art-Net DMX to network fixtures",
		Long: `Send frames as ArtDMX packets over UDP. Frames larger than one universe
(170 pixels) continue on the following universes.

With --discover, ArtPoll is broadcast and the nodes that reply are listed
instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if discover {
				return c.discover(cmd.Context(), wait)
			}

			a := &c.cfg.ArtNet
			fl := cmd.Flags()
			if fl.Changed("target") {
				a.Targets = targets
			}
			if fl.Changed("target-list") {
				a.TargetList = targetList
			}
			if fl.Changed("broadcast") {
				a.Broadcast = broadcast
			}
			if fl.Changed("universe") {
				a.Universe = universe
			}
			return c.run(cmd.Context(), device.KindArtNet, func(g geometry.Geometry) (device.Driver, error) {
				return artnet.New(g, artnet.Options{
					Targets:    a.Targets,
					TargetList: a.TargetList,
					Broadcast:  a.Broadcast,
					Universe:   a.Universe,
					Logger:     c.Logger,
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&targets, "target", nil, "node address, host or host:port (repeatable)")
	f.StringVar(&targetList, "target-list", "", "file with one node address per line, reloaded when it changes")
	f.BoolVar(&broadcast, "broadcast", false, "also send to 255.255.255.255")
	f.IntVar(&universe, "universe", 0, "port address of the first universe")
	f.BoolVar(&discover, "discover", false, "list Art-Net nodes on the network and exit")
	f.DurationVar(&wait, "discover-timeout", 2*time.Second, "how long to wait for ArtPollReply")
	return cmd
}

func (c *CLI) discover(ctx context.Context, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	conn, err := artnet.Listen(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	dst := []net.Addr{&net.UDPAddr{IP: net.IPv4bcast, Port: artnet.Port}}
	directed, err := artnet.DirectedBroadcasts()
	if err != nil {
		c.Logger.Warn().Err(err).Msg("only polling the limited broadcast address")
	}
	dst = append(dst, directed...)

	nodes, err := artnet.Discover(ctx, conn, dst...)
	if err != nil {
		return err
	}
	c.Logger.Info().Int("nodes", len(nodes)).Msg("discovery finished")
	for _, n := range nodes {
		fmt.Fprintf(c.stdout, "%s  %s  %s\n",
			styleAddr.Render(fmt.Sprintf("%-15s", n.Addr)),
			styleName.Render(n.ShortName),
			styleDim.Render(n.LongName))
	}
	return nil
}

func (c *CLI) hub75Command() *cobra.Command {
	var (
		levelSelect, red, green, blue []int
		clock, latch, oe, pwm         int
		lsb                           time.Duration
		backend, chip                 string
	)
	cmd := &cobra.Command{
		Use:   "hub75",
		Short: "Drive a HUB75 matrix panel by bit-banging GPIO lines",
		Long: `Drive a HUB75 matrix panel from the GPIO header. The panel is refreshed
continuously from a dedicated thread using binary coded modulation with --pwm
bit-planes; the least significant plane is lit for --lsb.

The defaults match the Adafruit RGB Matrix Bonnet with a 64x32 panel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := &c.cfg.Hub75
			fl := cmd.Flags()
			if fl.Changed("level-select") {
				h.LevelSelect = levelSelect
			}
			if fl.Changed("red") {
				h.Red = red
			}
			if fl.Changed("green") {
				h.Green = green
			}
			if fl.Changed("blue") {
				h.Blue = blue
			}
			if fl.Changed("clock") {
				h.Clock = clock
			}
			if fl.Changed("latch") {
				h.Latch = latch
			}
			if fl.Changed("output-enable") {
				h.OutputEnable = oe
			}
			if fl.Changed("pwm") {
				h.PWM = pwm
			}
			if fl.Changed("lsb") {
				h.LSB = lsb
			}
			if fl.Changed("gpio-backend") {
				h.GPIOBackend = backend
			}
			if fl.Changed("chip") {
				h.Chip = chip
			}
			return c.run(cmd.Context(), device.KindHub75, func(g geometry.Geometry) (device.Driver, error) {
				pcfg, err := c.cfg.Hub75Config(g)
				if err != nil {
					return nil, err
				}
				req, err := gpio.NewRequester(gpio.Backend(h.GPIOBackend), h.Chip)
				if err != nil {
					return nil, err
				}
				return hub75.New(g, pcfg, req, hub75.Options{Logger: c.Logger})
			})
		},
	}

	def := hub75.DefaultConfig()
	f := cmd.Flags()
	f.IntSliceVar(&levelSelect, "level-select", def.LevelSelect, "row address pins A, B, C, ...")
	f.IntSliceVar(&red, "red", def.Red, "red data pin per band")
	f.IntSliceVar(&green, "green", def.Green, "green data pin per band")
	f.IntSliceVar(&blue, "blue", def.Blue, "blue data pin per band")
	f.IntVar(&clock, "clock", def.Clock, "clock pin")
	f.IntVar(&latch, "latch", def.Latch, "latch pin")
	f.IntVar(&oe, "output-enable", def.OutputEnable, "output enable pin (active low)")
	f.IntVar(&pwm, "pwm", def.PWMCycles, "number of bit-planes, 1..8")
	f.DurationVar(&lsb, "lsb", def.LSBDuration, "on-time of the least significant bit-plane")
	f.StringVar(&backend, "gpio-backend", string(gpio.BackendCdev), "GPIO backend: cdev or sysfs")
	f.StringVar(&chip, "chip", gpio.DefaultChip, "GPIO chip for the cdev backend")
	return cmd
}

func (c *CLI) nrzledCommand() *cobra.Command {
	var (
		port string
		hz   int64
	)
	cmd := &cobra.Command{
		Use:   "nrzled",
		Short: "Drive WS2812 style strips through an SPI port",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := &c.cfg.NRZLED
			if cmd.Flags().Changed("spi") {
				n.SPI = port
			}
			if cmd.Flags().Changed("hz") {
				n.Hz = hz
			}
			return c.run(cmd.Context(), device.KindNRZLED, func(g geometry.Geometry) (device.Driver, error) {
				return nrzled.Open(g, n.SPI, physic.Frequency(n.Hz)*physic.Hertz)
			})
		},
	}
	cmd.Flags().StringVar(&port, "spi", "", "SPI port name, empty for the first one")
	cmd.Flags().Int64Var(&hz, "hz", 800000, "NRZ bit rate")
	return cmd
}

func (c *CLI) ws281xCommand() *cobra.Command {
	var pin, brightness int
	cmd := &cobra.Command{
		Use:   "ws281x",
		Short: "Drive WS281x strips through the rpi_ws281x library",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := &c.cfg.WS281x
			if cmd.Flags().Changed("gpio") {
				w.GPIO = pin
			}
			if cmd.Flags().Changed("brightness") {
				w.Brightness = brightness
			}
			return c.run(cmd.Context(), device.KindWS281x, func(g geometry.Geometry) (device.Driver, error) {
				return ws281x.Open(g, ws281x.Options{GPIO: w.GPIO, Brightness: w.Brightness})
			})
		},
	}
	def := ws281x.DefaultOptions()
	cmd.Flags().IntVar(&pin, "gpio", def.GPIO, "BCM pin of the data line")
	cmd.Flags().IntVar(&brightness, "brightness", def.Brightness, "global brightness, 0..255")
	return cmd
}
