// Package coordinator implements the cluster's authoritative directory:
// membership/liveness tracking, chunk placement, registration, and the
// re-replication control loop. Modeled as a single Coordinator value with
// method-level locking, an explicit service rather than package-level
// globals.
package coordinator

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
)

// Config holds the coordinator's tunables, independent of the viper-backed
// config.CoordinatorConfig so this package stays free of a config import
// cycle and is easy to construct directly in tests.
type Config struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	ReplicationFactor int
	ChunkSize         int64
	DataDir           string
}

// Coordinator composes the membership table and the directory behind two
// independent locks.
type Coordinator struct {
	membership *membership
	directory  *directory
	log        *logrus.Entry
}

func New(cfg Config, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	m := newMembership(cfg.HeartbeatTimeout, log)
	d := newDirectory(cfg.ChunkSize, cfg.ReplicationFactor, filepath.Join(cfg.DataDir, "chunks.json"), log)
	c := &Coordinator{membership: m, directory: d, log: log}

	// Re-replication never runs while the membership lock is held, it's
	// triggered from onFailure after the lock is released: the membership
	// lock is never held across I/O to storage nodes.
	m.onFailure = func(nodeID string) {
		active := m.ActiveNodes()
		d.reReplicate(nodeID, active)
	}

	m.startFailureDetector(cfg.HeartbeatInterval)
	return c
}

func (c *Coordinator) Stop() {
	c.membership.Stop()
}

func (c *Coordinator) Heartbeat(serverID, host string, port int) {
	c.membership.Heartbeat(serverID, host, port)
}

func (c *Coordinator) AllocateChunks(filename string, filesize int64) ([]wire.Allocation, error) {
	active := c.membership.ActiveNodes()
	return c.directory.allocate(filename, filesize, active)
}

func (c *Coordinator) RegisterChunk(filename, chunkID string, servers []string) error {
	return c.directory.register(filename, chunkID, servers)
}

func (c *Coordinator) SimulateFailure(nodeID string) bool {
	return c.membership.SimulateFailure(nodeID)
}

func (c *Coordinator) Logs() []wire.LogEntry {
	return c.membership.Logs()
}

// Status assembles the combined membership+directory view.
func (c *Coordinator) Status() wire.StatusResponse {
	nodes := c.membership.Snapshot()
	servers := make(map[string]wire.NodeView, len(nodes))
	activeCount := 0
	for id, n := range nodes {
		servers[id] = wire.NodeView{
			NodeID:        n.NodeID,
			Host:          n.Host,
			Port:          n.Port,
			LastHeartbeat: n.LastHeartbeat.Unix(),
			Status:        string(n.Status),
		}
		if n.Status == StatusActive {
			activeCount++
		}
	}

	files, chunks := c.directory.snapshotViews()

	var pct float64
	if len(nodes) > 0 {
		pct = float64(activeCount) / float64(len(nodes)) * 100
	}

	return wire.StatusResponse{
		Servers:           servers,
		Files:             files,
		Chunks:            chunks,
		FaultTolerancePct: pct,
		Timestamp:         time.Now().Unix(),
	}
}
