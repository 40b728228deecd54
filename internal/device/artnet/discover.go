package artnet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/jsimonetti/go-artnet/packet"
)

// opPollReply is the ArtPollReply opcode as it appears on the wire.
var opPollReply = []byte{0x00, 0x21}

var artNetID = []byte("Art-Net\x00")

// Node is an Art-Net node that answered an ArtPoll.
type Node struct {
	Addr      net.IP
	ShortName string
	LongName  string
}

// Discover sends an ArtPoll to every dst and collects replies until ctx is
// done. Each node is reported once.
func Discover(ctx context.Context, conn net.PacketConn, dst ...net.Addr) ([]Node, error) {
	if len(dst) == 0 {
		return nil, errors.New("no ArtPoll destination")
	}
	poll := packet.NewArtPollPacket()
	b, err := poll.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode ArtPoll: %w", err)
	}
	for _, d := range dst {
		if _, err := conn.WriteTo(b, d); err != nil {
			return nil, fmt.Errorf("failed to send ArtPoll to %s: %w", d, err)
		}
	}

	var (
		nodes []Node
		seen  = make(map[string]bool)
	)
	for {
		deadline := time.Now().Add(100 * time.Millisecond)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nodes, err
		}

		buf := make([]byte, 4096)
		n, from, err := conn.ReadFrom(buf)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			if ctx.Err() != nil {
				return nodes, nil
			}
			continue
		}
		if err != nil {
			return nodes, fmt.Errorf("failed to read ArtPollReply: %w", err)
		}
		if !isPollReply(buf[:n]) {
			continue
		}

		reply := &packet.ArtPollReplyPacket{}
		if err := reply.UnmarshalBinary(buf); err != nil {
			continue
		}
		ip := addrIP(from)
		if ip == nil || seen[ip.String()] {
			continue
		}
		seen[ip.String()] = true
		nodes = append(nodes, Node{
			Addr:      ip,
			ShortName: cString(reply.ShortName[:]),
			LongName:  cString(reply.LongName[:]),
		})
	}
}

func isPollReply(b []byte) bool {
	return len(b) >= 10 && bytes.Equal(b[:8], artNetID) && bytes.Equal(b[8:10], opPollReply)
}

func addrIP(a net.Addr) net.IP {
	if u, ok := a.(*net.UDPAddr); ok {
		return u.IP
	}
	return nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
