package router

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies holds the peers whose forwarding headers are believed.
// X-Forwarded-For and X-Forwarded-Proto from any other peer are ignored and
// the connection address stands. The zero value and nil trust nobody.
type TrustedProxies struct {
	nets    []*net.IPNet
	extract echo.IPExtractor
}

// ParseTrustedProxies accepts IP addresses and CIDR ranges. Loopback and
// private ranges are only trusted when listed.
func ParseTrustedProxies(entries []string) (*TrustedProxies, error) {
	tp := &TrustedProxies{}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		n, err := parseIPNet(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		tp.nets = append(tp.nets, n)
		opts = append(opts, echo.TrustIPRange(n))
	}
	if len(tp.nets) > 0 {
		tp.extract = echo.ExtractIPFromXFFHeader(opts...)
	}
	return tp, nil
}

func parseIPNet(s string) (*net.IPNet, error) {
	if strings.Contains(s, "/") {
		_, n, err := net.ParseCIDR(s)
		return n, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, errors.New("not an IP address or CIDR range")
	}
	bits := 8 * net.IPv6len
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 8*net.IPv4len
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

// RealIP returns the client address of req. X-Forwarded-For is walked from
// the right and the first hop outside the trusted ranges wins.
func (tp *TrustedProxies) RealIP(req *http.Request) string {
	if tp == nil || tp.extract == nil {
		return echo.ExtractIPDirect()(req)
	}
	return tp.extract(req)
}

// Trusts reports whether req came straight from a trusted proxy
func (tp *TrustedProxies) Trusts(req *http.Request) bool {
	if tp == nil || req == nil || len(tp.nets) == 0 {
		return false
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range tp.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
