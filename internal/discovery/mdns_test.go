package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func testServiceEntry(instance, ip string, txt ...string) *zeroconf.ServiceEntry {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instance,
			Service:  DefaultService,
			Domain:   DefaultDomain,
		},
		HostName: instance + ".local",
		Port:     443,
		Text:     txt,
	}
	if ip != "" {
		entry.AddrIPv4 = []net.IP{net.ParseIP(ip)}
	}
	return entry
}

func TestMDNSTransport_Discover(t *testing.T) {
	browse := func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
		if service != DefaultService {
			t.Errorf("browse service = %q, want %q", service, DefaultService)
		}
		if domain != DefaultDomain {
			t.Errorf("browse domain = %q, want %q", domain, DefaultDomain)
		}
		entries <- testServiceEntry("Hue Bridge - 0011", "192.168.1.10", "bridgeid=ecb5fafffe001122")
		entries <- testServiceEntry("Hue Bridge - 3344", "192.168.1.11")
		<-ctx.Done()
		return nil
	}

	transport := NewMDNSTransport(MDNSOptions{
		Timeout:  50 * time.Millisecond,
		browseFn: browse,
	})

	found, err := transport.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Discover() returned %d bridges, want 2", len(found))
	}

	if found[0].IPAddress != "192.168.1.10" || found[0].MDNSID != "ecb5fafffe001122" {
		t.Errorf("first bridge = %+v, want TXT bridgeid", found[0])
	}
	if found[1].MDNSID != "Hue Bridge - 3344" {
		t.Errorf("second bridge MDNSID = %q, want instance name fallback", found[1].MDNSID)
	}
}

func TestMDNSTransport_Discover_BrowseError(t *testing.T) {
	browse := func(_ context.Context, _, _ string, _ chan<- *zeroconf.ServiceEntry) error {
		return errors.New("multicast unavailable")
	}

	transport := NewMDNSTransport(MDNSOptions{
		Timeout:  50 * time.Millisecond,
		browseFn: browse,
	})

	if _, err := transport.Discover(context.Background()); err == nil {
		t.Error("Discover() error = nil, want browse error")
	}
}

func TestNewMDNSTransport_Defaults(t *testing.T) {
	transport := NewMDNSTransport(MDNSOptions{})
	if transport.service != DefaultService {
		t.Errorf("service = %q, want %q", transport.service, DefaultService)
	}
	if transport.domain != DefaultDomain {
		t.Errorf("domain = %q, want %q", transport.domain, DefaultDomain)
	}
	if transport.timeout != DefaultMDNSTimeout {
		t.Errorf("timeout = %v, want %v", transport.timeout, DefaultMDNSTimeout)
	}
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name   string
		entry  *zeroconf.ServiceEntry
		wantOK bool
		wantIP string
		wantID string
	}{
		{
			name:   "ipv4 with bridgeid",
			entry:  testServiceEntry("Hue Bridge", "192.168.1.10", "bridgeid=abc123", "modelid=BSB002"),
			wantOK: true,
			wantIP: "192.168.1.10",
			wantID: "abc123",
		},
		{
			name:   "instance fallback without txt",
			entry:  testServiceEntry("Philips Hue - AA11BB", "192.168.1.11"),
			wantOK: true,
			wantIP: "192.168.1.11",
			wantID: "Philips Hue - AA11BB",
		},
		{
			name:   "no address",
			entry:  testServiceEntry("Hue Bridge", ""),
			wantOK: false,
		},
		{
			name: "ipv6 fallback",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Hue Bridge"},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantOK: true,
			wantIP: "fe80::1",
			wantID: "Hue Bridge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseServiceEntry(tt.entry)
			if ok != tt.wantOK {
				t.Fatalf("parseServiceEntry() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.IPAddress != tt.wantIP {
				t.Errorf("IPAddress = %q, want %q", got.IPAddress, tt.wantIP)
			}
			if got.MDNSID != tt.wantID {
				t.Errorf("MDNSID = %q, want %q", got.MDNSID, tt.wantID)
			}
		})
	}
}

func TestTxtValue(t *testing.T) {
	text := []string{"bridgeid=ecb5fa", "modelid=BSB002", "malformed"}

	if got := txtValue(text, "bridgeid"); got != "ecb5fa" {
		t.Errorf("txtValue(bridgeid) = %q, want ecb5fa", got)
	}
	if got := txtValue(text, "modelid"); got != "BSB002" {
		t.Errorf("txtValue(modelid) = %q, want BSB002", got)
	}
	if got := txtValue(text, "missing"); got != "" {
		t.Errorf("txtValue(missing) = %q, want empty", got)
	}
}
