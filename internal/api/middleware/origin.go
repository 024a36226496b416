package middleware

import (
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// OriginPolicy decides which browser origins may call the daemon. Requests
// without an Origin header come from non-browser clients and are allowed.
type OriginPolicy struct {
	allowed []string
}

func NewOriginPolicy(allowed []string) *OriginPolicy {
	p := &OriginPolicy{}
	for _, o := range allowed {
		if o = normalizeOrigin(o); o != "" {
			p.allowed = append(p.allowed, o)
		}
	}
	return p
}

// Allowed accepts an empty origin, any http(s) loopback origin and the
// configured allow-list.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	origin = normalizeOrigin(origin)
	if slices.Contains(p.allowed, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// CheckOrigin has the websocket.Upgrader signature.
func (p *OriginPolicy) CheckOrigin(r *http.Request) bool {
	return p.Allowed(r.Header.Get("Origin"))
}

func normalizeOrigin(o string) string {
	return strings.TrimRight(strings.TrimSpace(o), "/")
}
