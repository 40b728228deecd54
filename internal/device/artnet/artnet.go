// Package artnet sends frames to Art-Net nodes as ArtDMX packets.
//
// A frame larger than one DMX universe is split across consecutive
// universes. Targets are unicast addresses, the broadcast address, or a
// list file that is re-read whenever it changes on disk.
package artnet

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jsimonetti/go-artnet/packet"
	"github.com/rs/zerolog"

	"github.com/fkcurrie/ledcat-golang/internal/device"
	"github.com/fkcurrie/ledcat-golang/internal/frame"
	"github.com/fkcurrie/ledcat-golang/internal/geometry"
)

const (
	// Port is the UDP port every Art-Net node listens on.
	Port = 6454

	// DefaultChannelsPerUniverse fits 170 RGB pixels in a universe.
	DefaultChannelsPerUniverse = 510

	dmxHeaderLen  = 18
	maxChannels   = 512
	maxPortAddr   = 0x7fff
	defaultReload = time.Second
)

// Options configures a Driver.
type Options struct {
	// Targets are host or host:port addresses receiving every packet.
	Targets []string
	// TargetList names a file with one target per line.
	TargetList string
	// Broadcast sends to the limited broadcast address.
	Broadcast bool
	// Universe is the 15-bit port address of the first universe.
	Universe int
	// ChannelsPerUniverse is the number of DMX channels filled per packet.
	ChannelsPerUniverse int
	// ReloadInterval is how often the target list file is checked.
	ReloadInterval time.Duration
	// Conn overrides the socket; the driver does not close it.
	Conn   net.PacketConn
	Logger zerolog.Logger
}

// Driver is a device.Driver for Art-Net nodes.
type Driver struct {
	geom     geometry.Geometry
	opts     Options
	log      zerolog.Logger
	conn     net.PacketConn
	ownsConn bool

	static []net.Addr
	list   *targetList
	seq    uint8
	pkt    *packet.ArtDMXPacket
}

// New validates opts and opens the sending socket.
func New(g geometry.Geometry, opts Options) (*Driver, error) {
	if opts.ChannelsPerUniverse == 0 {
		opts.ChannelsPerUniverse = DefaultChannelsPerUniverse
	}
	if opts.ChannelsPerUniverse < 3 || opts.ChannelsPerUniverse > maxChannels {
		return nil, fmt.Errorf("channels per universe must be within 3..%d, got %d", maxChannels, opts.ChannelsPerUniverse)
	}
	if opts.ReloadInterval <= 0 {
		opts.ReloadInterval = defaultReload
	}
	universes := (g.FrameSize() + opts.ChannelsPerUniverse - 1) / opts.ChannelsPerUniverse
	if opts.Universe < 0 || opts.Universe+universes-1 > maxPortAddr {
		return nil, fmt.Errorf("universes %d..%d exceed the Art-Net port address range", opts.Universe, opts.Universe+universes-1)
	}
	if len(opts.Targets) == 0 && opts.TargetList == "" && !opts.Broadcast {
		return nil, errors.New("no Art-Net targets configured")
	}

	d := &Driver{
		geom: g,
		opts: opts,
		log:  opts.Logger.With().Str("component", "artnet").Logger(),
		pkt:  packet.NewArtDMXPacket(),
	}

	for _, t := range opts.Targets {
		addr, err := ResolveTarget(t)
		if err != nil {
			return nil, err
		}
		d.static = append(d.static, addr)
	}
	if opts.Broadcast {
		d.static = append(d.static, &net.UDPAddr{IP: net.IPv4bcast, Port: Port})
	}
	if opts.TargetList != "" {
		d.list = newTargetList(opts.TargetList, opts.ReloadInterval, d.log)
		if err := d.list.load(); err != nil {
			return nil, err
		}
	}

	d.conn = opts.Conn
	if d.conn == nil {
		conn, err := net.ListenPacket("udp4", ":0")
		if err != nil {
			return nil, fmt.Errorf("failed to open Art-Net socket: %w", err)
		}
		if err := enableBroadcast(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		d.conn = conn
		d.ownsConn = true
	}

	d.log.Info().
		Int("universes", universes).
		Int("first_universe", opts.Universe).
		Int("targets", len(d.static)).
		Msg("Art-Net output ready")
	return d, nil
}

// ResolveTarget parses "host" or "host:port".
func ResolveTarget(s string) (net.Addr, error) {
	hostport := s
	if _, _, err := net.SplitHostPort(s); err != nil {
		hostport = net.JoinHostPort(s, strconv.Itoa(Port))
	}
	addr, err := net.ResolveUDPAddr("udp4", hostport)
	if err != nil {
		return nil, fmt.Errorf("invalid Art-Net target %q: %w", s, err)
	}
	return addr, nil
}

// Write implements device.Driver.
func (d *Driver) Write(f frame.Frame) error {
	if err := device.CheckSize(d.geom, f); err != nil {
		return err
	}

	targets := d.static
	if d.list != nil {
		targets = append(targets[:len(targets):len(targets)], d.list.targets()...)
	}

	d.seq++
	if d.seq == 0 {
		d.seq = 1
	}

	universe := d.opts.Universe
	for off := 0; off < len(f); off += d.opts.ChannelsPerUniverse {
		end := off + d.opts.ChannelsPerUniverse
		if end > len(f) {
			end = len(f)
		}
		b, err := d.marshal(universe, f[off:end])
		if err != nil {
			return device.WrapIO(string(device.KindArtNet), "marshal", err)
		}
		for _, addr := range targets {
			if _, err := d.conn.WriteTo(b, addr); err != nil {
				return device.WrapIO(string(device.KindArtNet), "send to "+addr.String(), err)
			}
		}
		universe++
	}
	return nil
}

// marshal encodes one ArtDMX packet. The DMX length is padded to an even
// number of channels.
func (d *Driver) marshal(universe int, data []byte) ([]byte, error) {
	p := d.pkt
	p.Sequence = d.seq
	p.Physical = 0
	p.SubUni = uint8(universe & 0xff)
	p.Net = uint8((universe >> 8) & 0x7f)

	n := len(data)
	if n%2 == 1 {
		n++
	}
	p.Data = [maxChannels]byte{}
	copy(p.Data[:], data)
	p.Length = uint16(n)

	b, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if len(b) > dmxHeaderLen+n {
		b = b[:dmxHeaderLen+n]
	}
	return b, nil
}

// Close implements device.Driver.
func (d *Driver) Close() error {
	if !d.ownsConn {
		return nil
	}
	return device.WrapIO(string(device.KindArtNet), "close", d.conn.Close())
}
