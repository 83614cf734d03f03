package mesh

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/patrickmn/go-cache"
)

// Resolver is the subset of *net.Resolver the DNS check needs.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DNSChecker resolves the mesh host and caches the outcome so status
// requests never wait on DNS more than once per cache window.
type DNSChecker struct {
	host     string
	timeout  time.Duration
	resolver Resolver
	cache    *cache.Cache
	logger   *slog.Logger
	now      func() time.Time
}

const dnsCacheKey = "dns_status"

func NewDNSChecker(host string, timeout, ttl time.Duration, resolver Resolver, logger *slog.Logger) *DNSChecker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSChecker{
		host:     host,
		timeout:  timeout,
		resolver: resolver,
		cache:    cache.New(ttl, 2*ttl),
		logger:   logger,
		now:      time.Now,
	}
}

// Check returns the cached status or resolves the host. Any lookup failure,
// including timeout, reports DEGRADED.
func (c *DNSChecker) Check(ctx context.Context) DNSStatus {
	if v, ok := c.cache.Get(dnsCacheKey); ok {
		return v.(DNSStatus)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := DNSStatus{Status: DNSStatusDegraded, LastCheck: c.now().UTC()}
	addrs, err := c.resolver.LookupHost(lookupCtx, c.host)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "dns check failed", "host", c.host, "error", err)
	case len(addrs) > 0:
		status.Status = DNSStatusSynchronized
		status.ResolverHealth = true
	}

	c.cache.SetDefault(dnsCacheKey, status)
	return status
}
