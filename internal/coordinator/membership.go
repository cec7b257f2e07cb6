package coordinator

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
)

const logRingSize = 50

// membership tracks storage-node liveness under its own lock, independent
// of the directory lock, per the concurrency model's membership→directory
// acquisition order. Grounded on internal/peer/peer.go's registry-with-
// RWMutex shape and internal/dfs/dfs_core.go's ticker-driven health sweep,
// re-pointed from P2P-pinged peers to coordinator-received heartbeats.
type membership struct {
	mu      sync.RWMutex
	nodes   map[string]*NodeInfo
	nextSeq int64
	logs    []wire.LogEntry

	heartbeatTimeout time.Duration
	log              *logrus.Entry

	// onFailure is invoked (outside the membership lock) whenever a node
	// transitions active -> failed, whether by the detector or by
	// SimulateFailure. It triggers the re-replication pass.
	onFailure func(nodeID string)

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func newMembership(timeout time.Duration, log *logrus.Entry) *membership {
	return &membership{
		nodes:            make(map[string]*NodeInfo),
		heartbeatTimeout: timeout,
		log:              log,
		stopCh:           make(chan struct{}),
	}
}

func (m *membership) appendLog(server, event string) {
	m.logs = append(m.logs, wire.LogEntry{
		Timestamp: time.Now().Unix(),
		Server:    server,
		Event:     event,
	})
	if len(m.logs) > logRingSize {
		m.logs = m.logs[len(m.logs)-logRingSize:]
	}
}

// Heartbeat upserts a NodeInfo. Idempotent: repeated heartbeats from the
// same node refresh (host,port) and last_heartbeat without creating a new
// entry or disturbing its join order.
func (m *membership) Heartbeat(nodeID, host string, port int) {
	m.mu.Lock()
	n, exists := m.nodes[nodeID]
	wasFailed := exists && n.Status == StatusFailed
	if !exists {
		n = &NodeInfo{NodeID: nodeID, joinedAt: m.nextSeq}
		m.nextSeq++
		m.nodes[nodeID] = n
		m.appendLog(nodeID, "joined")
	}
	n.Host = host
	n.Port = port
	n.LastHeartbeat = time.Now()
	n.Status = StatusActive
	if wasFailed {
		m.appendLog(nodeID, "recovered")
	}
	m.mu.Unlock()
}

// ActiveNodes returns currently-active nodes in stable join order, the
// ordering placement allocation relies on within one call.
func (m *membership) ActiveNodes() []NodeInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]NodeInfo, 0, len(m.nodes))
	for _, n := range m.nodes {
		if n.Status == StatusActive {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].joinedAt < out[j].joinedAt })
	return out
}

// Lookup returns a copy of a node's info, or ok=false if unknown.
func (m *membership) Lookup(nodeID string) (NodeInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[nodeID]
	if !ok {
		return NodeInfo{}, false
	}
	return *n, true
}

// Snapshot returns a copy of every known node, for the status surface.
func (m *membership) Snapshot() map[string]NodeInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]NodeInfo, len(m.nodes))
	for id, n := range m.nodes {
		out[id] = *n
	}
	return out
}

func (m *membership) Logs() []wire.LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]wire.LogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}

// SimulateFailure forces a node to failed, an administrative shortcut for
// operators and tests. Returns false if the node is unknown.
func (m *membership) SimulateFailure(nodeID string) bool {
	m.mu.Lock()
	n, ok := m.nodes[nodeID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	n.Status = StatusFailed
	m.appendLog(nodeID, "failed (simulated)")
	m.mu.Unlock()

	if m.onFailure != nil {
		m.onFailure(nodeID)
	}
	return true
}

// checkTimeouts transitions any node silent for longer than the heartbeat
// timeout to failed, and fires onFailure for each one. This is the sole
// transition source into failed besides SimulateFailure.
func (m *membership) checkTimeouts() {
	now := time.Now()
	var newlyFailed []string

	m.mu.Lock()
	for id, n := range m.nodes {
		if n.Status == StatusActive && now.Sub(n.LastHeartbeat) > m.heartbeatTimeout {
			n.Status = StatusFailed
			m.appendLog(id, "failed (timeout)")
			newlyFailed = append(newlyFailed, id)
		}
	}
	m.mu.Unlock()

	for _, id := range newlyFailed {
		m.log.WithField("node_id", id).Warn("node marked failed by detector")
		if m.onFailure != nil {
			m.onFailure(id)
		}
	}
}

// startFailureDetector runs checkTimeouts on a fixed cadence until Stop is
// called. A cooperative goroutine, grounded on dfs_core.go's
// heartbeatMonitor loop.
func (m *membership) startFailureDetector(interval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.checkTimeouts()
			case <-m.stopCh:
				return
			}
		}
	}()
}

func (m *membership) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}
