package artnet

import (
	"fmt"
	"net"
)

// DirectedBroadcasts returns the broadcast address of every IPv4 network
// the host is attached to, with the Art-Net port. Loopback, down and
// link-local interfaces are skipped.
func DirectedBroadcasts() ([]net.Addr, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	var addrs []net.Addr
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		ifAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range ifAddrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if bcast := broadcastOf(ipNet); bcast != nil {
				addrs = append(addrs, &net.UDPAddr{IP: bcast, Port: Port})
			}
		}
	}
	return addrs, nil
}

// broadcastOf returns the directed broadcast address of an IPv4 network, or
// nil for other networks.
func broadcastOf(ipNet *net.IPNet) net.IP {
	ip := ipNet.IP.To4()
	if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return nil
	}
	mask := ipNet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return nil
	}
	bcast := make(net.IP, net.IPv4len)
	for i := range bcast {
		bcast[i] = ip[i] | ^mask[i]
	}
	return bcast
}
