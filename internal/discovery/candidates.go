// Package discovery locates a reachable base URL for the face-analysis service.
package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Kind classifies where a candidate endpoint is expected to live.
type Kind string

const (
	KindTunnel   Kind = "tunnel"
	KindLocal    Kind = "local"
	KindEmulator Kind = "emulator"
	KindNetwork  Kind = "network"
)

// DefaultPort is the port the face-analysis service listens on.
const DefaultPort = 3001

// Android emulators reach the host loopback through this alias.
const emulatorHost = "10.0.2.2"

// Candidate is one base URL to probe.
type Candidate struct {
	URL  string `json:"url"`
	Kind Kind   `json:"kind"`
}

// CandidateConfig controls candidate generation.
type CandidateConfig struct {
	TunnelURL    string   // highest priority when set
	Port         int      // port for generated URLs (default: 3001)
	Prefixes     []string // /24 network prefixes such as "192.168.1"
	HostSuffixes []int    // host octets tried within each prefix
	ExtraURLs    []string // appended last, in order
}

// DefaultPrefixes are common home and office network ranges.
func DefaultPrefixes() []string {
	return []string{
		"192.168.1",
		"192.168.0",
		"192.168.56",
		"172.16.0",
		"172.31.98",
		"172.29.112",
		"10.0.0",
		"10.0.1",
	}
}

// DefaultHostSuffixes are host octets where a development machine usually sits.
func DefaultHostSuffixes() []int {
	return []int{1, 2, 10, 100, 101, 254}
}

// DefaultCandidateConfig returns the standard sweep configuration.
func DefaultCandidateConfig() CandidateConfig {
	return CandidateConfig{
		Port:         DefaultPort,
		Prefixes:     DefaultPrefixes(),
		HostSuffixes: DefaultHostSuffixes(),
	}
}

// Candidates builds the ordered, de-duplicated list of base URLs to probe:
// tunnel, loopback, emulator alias, private ranges, then extras.
func Candidates(cfg CandidateConfig) []Candidate {
	port := cfg.Port
	if port <= 0 {
		port = DefaultPort
	}

	seen := make(map[string]bool)
	var out []Candidate
	add := func(raw string, kind Kind) {
		u := normalizeURL(raw)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, Candidate{URL: u, Kind: kind})
	}

	if cfg.TunnelURL != "" {
		add(cfg.TunnelURL, KindTunnel)
	}

	add(hostURL("localhost", port), KindLocal)
	add(hostURL("127.0.0.1", port), KindLocal)
	add(hostURL(emulatorHost, port), KindEmulator)

	for _, prefix := range cfg.Prefixes {
		prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
		if prefix == "" {
			continue
		}
		for _, suffix := range cfg.HostSuffixes {
			add(hostURL(fmt.Sprintf("%s.%d", prefix, suffix), port), KindNetwork)
		}
	}

	for _, extra := range cfg.ExtraURLs {
		add(extra, classify(extra))
	}

	return out
}

// URLs returns just the URL strings of cs.
func URLs(cs []Candidate) []string {
	urls := make([]string, len(cs))
	for i, c := range cs {
		urls[i] = c.URL
	}
	return urls
}

// neighborSuffixes are probed when the device's own address is known.
var neighborSuffixes = []int{1, 2, 10, 100, 101, 102, 254}

// DeriveNeighbors returns likely server addresses on the same /24 as deviceIP,
// excluding the device itself. Non-IPv4 input yields nil.
func DeriveNeighbors(deviceIP string) []string {
	ip := net.ParseIP(strings.TrimSpace(deviceIP)).To4()
	if ip == nil {
		return nil
	}
	self := ip.String()
	network := fmt.Sprintf("%d.%d.%d", ip[0], ip[1], ip[2])

	var out []string
	for _, suffix := range neighborSuffixes {
		candidate := network + "." + strconv.Itoa(suffix)
		if candidate != self {
			out = append(out, candidate)
		}
	}
	return out
}

func hostURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func normalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

func classify(u string) Kind {
	switch {
	case strings.Contains(u, "localhost"), strings.Contains(u, "127.0.0.1"):
		return KindLocal
	case strings.Contains(u, emulatorHost):
		return KindEmulator
	case strings.HasPrefix(u, "https://"):
		return KindTunnel
	default:
		return KindNetwork
	}
}
