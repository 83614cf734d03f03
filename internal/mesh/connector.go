// Package mesh is the VaultMesh connector. Syncs are recorded locally; there
// is no remote mesh to talk to yet, so Sync always reports the local outcome.
package mesh

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"scrollvault/internal/platform/metrics"
)

// State persists sync bookkeeping.
type State interface {
	RecordSync(ctx context.Context, at time.Time) error
	Snapshot(ctx context.Context) (Snapshot, error)
}

// PositionSource reports how many treaty positions are taken and how many
// scrolls the ledger actually holds. The two differ by the position baseline.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type ledgerFigures struct {
	position int64
	signed   int64
}

type Connector struct {
	state     State
	positions PositionSource
	dns       *DNSChecker
	interval  time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Connector)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Connector) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Connector) { c.now = now }
}

func NewConnector(state State, positions PositionSource, dns *DNSChecker, interval time.Duration, opts ...Option) *Connector {
	c := &Connector{
		state:     state,
		positions: positions,
		dns:       dns,
		interval:  interval,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync records payload as synchronized. It returns false, after logging, if
// the state store rejects the write.
func (c *Connector) Sync(ctx context.Context, payload map[string]any) bool {
	if err := c.state.RecordSync(ctx, c.now().UTC()); err != nil {
		c.logger.ErrorContext(ctx, "vaultmesh sync failed",
			"scroll_id", payload["scroll_id"],
			"error", err,
		)
		return false
	}
	c.metrics.IncrementMeshSyncs()
	c.logger.InfoContext(ctx, "vaultmesh sync complete",
		"scroll_id", payload["scroll_id"],
		"license_id", payload["license_id"],
	)
	return true
}

func (c *Connector) Status(ctx context.Context) (*Status, error) {
	snap, ledger, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		VaultMesh: NodeStatus{
			NodesActive:   DefaultNodesActive,
			SyncStatus:    SyncStatusActive,
			LastPulse:     snap.LastPulse,
			NetworkHealth: DefaultNetworkHealth,
			ScrollsActive: ledger.position,
			ScrollsSigned: ledger.signed,
			MarsCondition: MarsConditionAuthorized,
		},
		DNS:             c.dns.Check(ctx),
		PlanetaryMotion: PlanetaryMotionActive,
	}, nil
}

func (c *Connector) Pulse(ctx context.Context) (*Pulse, error) {
	snap, ledger, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return &Pulse{
		PulseInterval:   fmt.Sprintf("%gs", c.interval.Seconds()),
		LastPulse:       snap.LastPulse,
		NodesActive:     DefaultNodesActive,
		ScrollsActive:   ledger.position,
		ScrollsSigned:   ledger.signed,
		NetworkHealth:   DefaultNetworkHealth,
		MarsCondition:   MarsConditionAuthorized,
		TreatiesSynced:  snap.Syncs,
		DNSSynchronized: c.dns.Check(ctx).Status == DNSStatusSynchronized,
	}, nil
}

// RunPulse logs a pulse every interval until ctx is cancelled. A failed
// pulse is logged and the loop carries on.
func (c *Connector) RunPulse(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.InfoContext(ctx, "scroll pulse started", "interval", c.interval.String())
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("scroll pulse stopped")
			return nil
		case <-ticker.C:
			p, err := c.Pulse(ctx)
			if err != nil {
				c.logger.ErrorContext(ctx, "scroll pulse emission failed", "error", err)
				continue
			}
			c.logger.InfoContext(ctx, "scroll pulse emitted",
				"nodes_active", p.NodesActive,
				"scrolls_active", p.ScrollsActive,
				"scrolls_signed", p.ScrollsSigned,
				"network_health", p.NetworkHealth,
				"mars_condition", p.MarsCondition,
			)
		}
	}
}

func (c *Connector) read(ctx context.Context) (Snapshot, ledgerFigures, error) {
	snap, err := c.state.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, ledgerFigures{}, fmt.Errorf("read mesh state: %w", err)
	}
	position, err := c.positions.CurrentPosition(ctx)
	if err != nil {
		return Snapshot{}, ledgerFigures{}, fmt.Errorf("read ledger position: %w", err)
	}
	signed, err := c.positions.Count(ctx)
	if err != nil {
		return Snapshot{}, ledgerFigures{}, fmt.Errorf("count ledger scrolls: %w", err)
	}
	return snap, ledgerFigures{position: position, signed: signed}, nil
}
