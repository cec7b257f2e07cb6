package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
)

// Resolver turns a node ID into a reachable host:port. The simplest
// deployment hardcodes a node_id -> port table; CoordinatorResolver instead
// consults the coordinator's status surface.
type Resolver interface {
	Resolve(nodeID string) (string, error)
}

// StaticResolver is a fixed node_id -> host:port table, grounded on
// client.py's hardcoded port_map.
type StaticResolver struct {
	Addresses map[string]string
}

func (r StaticResolver) Resolve(nodeID string) (string, error) {
	addr, ok := r.Addresses[nodeID]
	if !ok {
		return "", fmt.Errorf("no known address for node %q", nodeID)
	}
	return addr, nil
}

// CoordinatorResolver asks the coordinator's /status for the node's current
// (host, port), so storage-node addresses are never hard-coded client-side.
type CoordinatorResolver struct {
	CoordinatorURL string
	HTTPClient     *http.Client
}

func (r CoordinatorResolver) Resolve(nodeID string) (string, error) {
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(r.CoordinatorURL + "/status")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var status wire.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", err
	}
	node, ok := status.Servers[nodeID]
	if !ok {
		return "", fmt.Errorf("coordinator has no record of node %q", nodeID)
	}
	return fmt.Sprintf("%s:%d", node.Host, node.Port), nil
}
