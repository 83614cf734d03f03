package mesh

import "time"

const (
	DefaultNodesActive   = 89
	DefaultNetworkHealth = 98

	SyncStatusActive        = "ACTIVE"
	MarsConditionAuthorized = "PLANETARY_MOTION_AUTHORIZED"
	DNSStatusSynchronized   = "SYNCHRONIZED"
	DNSStatusDegraded       = "DEGRADED"
	PlanetaryMotionActive   = "ACTIVE"
)

// Snapshot is the persisted part of the mesh state.
type Snapshot struct {
	LastPulse time.Time
	Syncs     int64
}

type DNSStatus struct {
	Status         string    `json:"dns_status"`
	ResolverHealth bool      `json:"resolver_health"`
	LastCheck      time.Time `json:"last_check"`
}

type NodeStatus struct {
	NodesActive   int       `json:"nodes_active"`
	SyncStatus    string    `json:"sync_status"`
	LastPulse     time.Time `json:"last_pulse"`
	NetworkHealth int       `json:"network_health"`
	ScrollsActive int64     `json:"scrolls_active"`
	ScrollsSigned int64     `json:"scrolls_signed"`
	MarsCondition string    `json:"mars_condition"`
}

type Status struct {
	VaultMesh       NodeStatus `json:"vault_mesh"`
	DNS             DNSStatus  `json:"dns"`
	PlanetaryMotion string     `json:"planetary_motion"`
}

type Pulse struct {
	PulseInterval   string    `json:"pulse_interval"`
	LastPulse       time.Time `json:"last_pulse"`
	NodesActive     int       `json:"nodes_active"`
	ScrollsActive   int64     `json:"scrolls_active"`
	ScrollsSigned   int64     `json:"scrolls_signed"`
	NetworkHealth   int       `json:"network_health"`
	MarsCondition   string    `json:"mars_condition"`
	TreatiesSynced  int64     `json:"treaties_synced"`
	DNSSynchronized bool      `json:"dns_synchronized"`
}
