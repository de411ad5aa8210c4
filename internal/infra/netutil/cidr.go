package netutil

import "net"

// ParseCIDRs parses CIDR strings into []*net.IPNet; invalid entries are
// dropped so a typo in config narrows access instead of widening it.
func ParseCIDRs(cidrs []string) (out []*net.IPNet) {
	for _, s := range cidrs {
		_, n, err := net.ParseCIDR(s)
		if err == nil && n != nil {
			out = append(out, n)
		}
	}
	return
}
