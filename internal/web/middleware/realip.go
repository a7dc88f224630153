package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// TrustedRealIP resolves the client IP that rate limiting and the edit
// audit trail record. X-Real-IP and X-Forwarded-For are honored only
// when the connection itself comes from one of the configured proxy
// networks; anyone else could forge those headers to dodge throttling
// or plant a false address on a document's audit entries.
//
// Requests not arriving through a trusted proxy keep their RemoteAddr.
func TrustedRealIP(cidrs []string) func(http.Handler) http.Handler {
	networks := parseTrustedNetworks(cidrs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fromTrustedProxy(r.RemoteAddr, networks) {
				if ip := forwardedClientIP(r); ip != "" {
					r.RemoteAddr = ip
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parseTrustedNetworks accepts CIDRs and bare IPs. Invalid entries are
// logged and skipped at startup rather than treated as fatal.
func parseTrustedNetworks(cidrs []string) []*net.IPNet {
	var networks []*net.IPNet
	for _, entry := range cidrs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			networks = append(networks, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			slog.Warn("realip: skipping invalid trusted proxy entry", "entry", entry)
			continue
		}
		mask := net.CIDRMask(128, 128)
		if ip.To4() != nil {
			mask = net.CIDRMask(32, 32)
		}
		networks = append(networks, &net.IPNet{IP: ip, Mask: mask})
	}
	return networks
}

// forwardedClientIP returns the client IP asserted by the proxy
// headers, or "" when neither header carries a valid address.
// X-Real-IP wins; in an X-Forwarded-For chain the first hop is the
// original client.
func forwardedClientIP(r *http.Request) string {
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		if ip := net.ParseIP(rip); ip != nil {
			return ip.String()
		}
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return ""
	}
	first := xff
	if idx := strings.Index(xff, ","); idx > 0 {
		first = xff[:idx]
	}
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}

// fromTrustedProxy reports whether the connection source is inside one
// of the trusted networks. remoteAddr may be host:port or a plain IP.
func fromTrustedProxy(remoteAddr string, networks []*net.IPNet) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, network := range networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
