// Package hostaddr provides the host and address plumbing around an FTP
// audit: IPv4/integer conversions, reverse DNS, the public IPv4 space as
// integer ranges (for sweeping), and a TCP reachability probe.
package hostaddr

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
	"time"
)

// ToInt converts an IPv4 address to its integer form. The second return
// is false for non-IPv4 addresses.
func ToInt(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

// FromInt converts an integer back to an IPv4 address.
func FromInt(n uint32) net.IP {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, n)
	return ip
}

// ParseToInt converts a dotted-quad string to integer form.
func ParseToInt(s string) (uint32, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, false
	}
	return ToInt(ip)
}

// ReverseLookup returns the first PTR name registered for addr, without
// its trailing dot, or "" when nothing resolves.
func ReverseLookup(addr string) string {
	names, err := net.LookupAddr(addr)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}

// Range is an inclusive span of IPv4 addresses in integer form.
type Range struct {
	First, Last uint32
}

// Size returns the number of addresses in the range.
func (r Range) Size() uint64 {
	return uint64(r.Last) - uint64(r.First) + 1
}

// publicRanges is the IPv4 space with the reserved blocks removed
// (loopback, RFC 1918, link-local, CGN, documentation, multicast, ...).
// Derived from the IANA reserved-address registry.
var publicRanges = []Range{
	{16777216, 167772159},   // 1.0.0.0 - 9.255.255.255
	{184549376, 1681915903}, // 11.0.0.0 - 100.63.255.255
	{1686110208, 2130641151},
	{2147483648, 2851995647},
	{2852061184, 2886729727},
	{2887778304, 3221225471},
	{3221225728, 3221225983},
	{3221226240, 3227017983},
	{3227018240, 3232235519},
	{3232301056, 3323068415},
	{3323199488, 3325256703},
	{3325256960, 3405803775},
	{3405804032, 3744923903}, // 203.0.114.0 - 223.55.255.255
}

// PublicRanges returns a copy of the public IPv4 ranges.
func PublicRanges() []Range {
	out := make([]Range, len(publicRanges))
	copy(out, publicRanges)
	return out
}

// NumPublicIPs returns the total number of public IPv4 addresses.
func NumPublicIPs() uint64 {
	var n uint64
	for _, r := range publicRanges {
		n += r.Size()
	}
	return n
}

// ClampPublic intersects [first, last] with the public ranges, returning
// the publicly routable sub-ranges in order. An inverted span yields nil.
func ClampPublic(first, last uint32) []Range {
	if first > last {
		return nil
	}

	var out []Range
	for _, pr := range publicRanges {
		if pr.First > last || pr.Last < first {
			continue
		}
		out = append(out, Range{max(first, pr.First), min(last, pr.Last)})
	}
	return out
}

// Divide splits the public IPv4 space into approximately n ranges of
// similar size, never merging across reserved gaps. Small n (below the
// number of public blocks) returns the blocks as they are.
func Divide(n int) []Range {
	if n <= len(publicRanges) {
		return PublicRanges()
	}
	return divide(publicRanges, NumPublicIPs()/uint64(n))
}

// divide splits each range into chunks of per addresses (the final chunk
// of a range may be smaller). A per of zero, from asking for more pieces
// than there are addresses, degrades to single-address chunks.
func divide(ranges []Range, per uint64) []Range {
	if per == 0 {
		per = 1
	}

	var out []Range
	for _, pr := range ranges {
		remaining := pr.Size()
		for remaining > 0 {
			first := pr.Last - uint32(remaining) + 1
			if remaining >= per {
				out = append(out, Range{first, first + uint32(per) - 1})
				remaining -= per
			} else {
				out = append(out, Range{first, pr.Last})
				remaining = 0
			}
		}
	}
	return out
}

// ForEach calls fn for every address in r in ascending order, with a
// running index starting at zero. fn returning false stops the walk.
// ForEach reports whether the range was valid.
func ForEach(r Range, fn func(ip net.IP, index int) bool) bool {
	if r.First > r.Last {
		return false
	}

	index := 0
	for n := uint64(r.First); n <= uint64(r.Last); n++ {
		if !fn(FromInt(uint32(n)), index) {
			break
		}
		index++
	}
	return true
}

// Reachable reports whether a TCP connection to host:port completes
// within the timeout. For a service audit this is a truthier liveness
// signal than ICMP: it is the exact path the session will use.
func Reachable(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
