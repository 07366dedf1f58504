// Package mdns locates the receiver host's IQ sample service on the
// local network, so the server can start without a configured address.
package mdns

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Service is the advertised service type of the IQ sample stream.
const Service = "_iqstream._tcp"

// Host is one discovered IQ service endpoint.
type Host struct {
	Instance  string // advertised name, e.g. "iq on sdrhost"
	Hostname  string // DNS hostname, e.g. "sdrhost.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Addr returns a dialable host:port for the first address, preferring
// IPv4. Empty when the entry carries no address.
func (h Host) Addr() string {
	var pick net.IP
	for _, ip := range h.Addresses {
		if ip.To4() != nil {
			pick = ip
			break
		}
	}
	if pick == nil && len(h.Addresses) > 0 {
		pick = h.Addresses[0]
	}
	if pick == nil {
		return ""
	}
	return net.JoinHostPort(pick.String(), fmt.Sprint(h.Port))
}

// Discover performs a blocking mDNS browse for IQ services and returns
// deduplicated entries sorted by hostname.
func Discover(ctx context.Context, timeout time.Duration) ([]Host, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	results := make(map[string]Host)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range entries {
			if e == nil {
				continue
			}
			addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
			addrs = append(addrs, e.AddrIPv4...)
			addrs = append(addrs, e.AddrIPv6...)
			key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
			results[key] = Host{
				Instance:  cleanInstance(e.Instance),
				Hostname:  e.HostName,
				Addresses: addrs,
				Port:      e.Port,
				TXT:       append([]string{}, e.Text...),
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, "local.", entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}
	<-done

	out := make([]Host, 0, len(results))
	for _, h := range results {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })
	return out, nil
}

// cleanInstance removes zeroconf escape sequences: "\ " => " ".
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
