// Package discover locates a board server on the local network via
// mDNS, used when no explicit server address is configured.
package discover

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_canvasboard._tcp"

// Advertise announces a board server on the local network. The caller
// shuts the returned server down when it exits.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"CanvasBoard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// ServerAddr browses for a board server advertisement and returns the
// first host:port found within the timeout.
func ServerAddr(timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port):
			default:
			}
		}
	}()
	if err := mdns.Lookup(serviceType, entries); err != nil {
		return "", fmt.Errorf("mdns lookup: %w", err)
	}
	select {
	case addr := <-found:
		return addr, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("no %s service found on the local network", serviceType)
	}
}
