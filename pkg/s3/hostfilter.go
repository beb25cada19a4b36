package s3

import (
	"fmt"
	"net/url"
	"strings"
)

// RemoteHostFilter rejects endpoints outside an operator-approved set. It is
// a security boundary: the check runs before any connection attempt and again
// for every redirect target.
type RemoteHostFilter interface {
	Check(u *url.URL) error
}

type allowAllHosts struct{}

func (allowAllHosts) Check(*url.URL) error { return nil }

// AllowAllHosts returns a filter that accepts every endpoint. Suitable only
// for setups where the endpoint set is constrained elsewhere.
func AllowAllHosts() RemoteHostFilter { return allowAllHosts{} }

// HostAllowList is a RemoteHostFilter backed by an explicit set of host
// names. An entry of the form ".example.com" allows any subdomain.
type HostAllowList struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewHostAllowList builds a filter from the given host patterns. An empty
// list rejects everything.
func NewHostAllowList(hosts ...string) *HostAllowList {
	f := &HostAllowList{exact: make(map[string]struct{})}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if strings.HasPrefix(h, ".") {
			f.suffixes = append(f.suffixes, h)
			continue
		}
		f.exact[h] = struct{}{}
	}
	return f
}

func (f *HostAllowList) Check(u *url.URL) error {
	host := strings.ToLower(u.Hostname())
	if _, ok := f.exact[host]; ok {
		return nil
	}
	for _, suffix := range f.suffixes {
		if strings.HasSuffix(host, suffix) {
			return nil
		}
	}
	return fmt.Errorf("s3: host %q is not in the allowed host list", host)
}
