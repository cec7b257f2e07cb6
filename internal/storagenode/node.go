package storagenode

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
)

// Node wraps a ChunkStore with a heartbeat emitter: a cooperative loop that
// posts liveness to the coordinator on a fixed cadence, grounded on
// chunk_server.py's send_heartbeat loop and internal/peer/monitor.go's
// ticker-goroutine-with-stop-channel shape.
type Node struct {
	ServerID string
	Store    ChunkStore

	coordinatorURL string
	host           string
	port           int
	interval       time.Duration
	httpClient     *http.Client
	log            *logrus.Entry

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewNode(serverID string, store ChunkStore, coordinatorURL, host string, port int, interval time.Duration, log *logrus.Entry) *Node {
	return &Node{
		ServerID:       serverID,
		Store:          store,
		coordinatorURL: coordinatorURL,
		host:           host,
		port:           port,
		interval:       interval,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		log:            log,
		stopCh:         make(chan struct{}),
	}
}

// StartHeartbeatLoop posts a heartbeat every interval until Stop is called.
// Failures are logged and never affect serving readiness: the node never
// shuts down on heartbeat failure.
func (n *Node) StartHeartbeatLoop() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.sendHeartbeat()
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.sendHeartbeat()
			case <-n.stopCh:
				return
			}
		}
	}()
}

func (n *Node) sendHeartbeat() {
	body, _ := json.Marshal(wire.HeartbeatRequest{ServerID: n.ServerID, Host: n.host, Port: n.port})
	resp, err := n.httpClient.Post(n.coordinatorURL+"/heartbeat", "application/json", bytes.NewReader(body))
	if err != nil {
		n.log.WithError(err).Warn("heartbeat failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.log.WithField("status", resp.StatusCode).Warn("heartbeat rejected by coordinator")
	}
}

func (n *Node) Stop() {
	close(n.stopCh)
	n.wg.Wait()
}
