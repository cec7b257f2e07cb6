package client

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/coordinator"
	"github.com/mohdarsh786/Mini-Google-File-System/internal/storagenode"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/httpserver"
)

// harness spins up an in-process coordinator and a set of storage nodes
// over httptest servers, wired together the way cmd/coordinator and
// cmd/storagenode wire them at startup, so Upload/Download can be
// exercised end-to-end without real network addresses.
type harness struct {
	t           *testing.T
	coordinator *coordinator.Coordinator
	coordSrv    *httptest.Server
	nodes       map[string]*httptest.Server
	resolver    StaticResolver
}

func newHarness(t *testing.T, nodeCount int) *harness {
	t.Helper()
	log := logrus.NewEntry(logrus.New())

	dataDir := filepath.Join(os.TempDir(), "client-test-"+t.Name())
	os.RemoveAll(dataDir)
	t.Cleanup(func() { os.RemoveAll(dataDir) })

	coord := coordinator.New(coordinator.Config{
		HeartbeatInterval: time.Hour,
		HeartbeatTimeout:  time.Hour,
		ReplicationFactor: 2,
		ChunkSize:         1 << 20,
		DataDir:           filepath.Join(dataDir, "coordinator"),
	}, log)
	t.Cleanup(coord.Stop)

	coordMux := httpserver.New()
	coordinator.RegisterRoutes(coordMux, coord, log)
	coordSrv := httptest.NewServer(coordMux)
	t.Cleanup(coordSrv.Close)

	h := &harness{
		t:           t,
		coordinator: coord,
		coordSrv:    coordSrv,
		nodes:       make(map[string]*httptest.Server),
		resolver:    StaticResolver{Addresses: make(map[string]string)},
	}

	for i := 0; i < nodeCount; i++ {
		nodeID := "n" + string(rune('0'+i))
		store, err := storagenode.NewLocalChunkStore(filepath.Join(dataDir, nodeID), log)
		if err != nil {
			t.Fatalf("NewLocalChunkStore: %v", err)
		}
		t.Cleanup(func() { store.Close() })

		node := storagenode.NewNode(nodeID, store, coordSrv.URL, "127.0.0.1", 0, time.Hour, log)
		nodeMux := httpserver.New()
		storagenode.RegisterRoutes(nodeMux, node, log)
		nodeSrv := httptest.NewServer(nodeMux)
		t.Cleanup(nodeSrv.Close)
		h.nodes[nodeID] = nodeSrv

		addr := strings.TrimPrefix(nodeSrv.URL, "http://")
		h.resolver.Addresses[nodeID] = addr

		// register the node with the coordinator directly (bypassing the
		// heartbeat loop's timer, for a deterministic test)
		coord.Heartbeat(nodeID, "127.0.0.1", 0)
	}

	return h
}

func (h *harness) client() *Client {
	return New(h.coordSrv.URL, h.resolver, 1<<20, logrus.NewEntry(logrus.New()))
}

// Upload registers the full allocated replica set with the coordinator,
// and the coordinator's status view agrees with what was uploaded.
func TestUploadRegistersAllocatedSet(t *testing.T) {
	h := newHarness(t, 2)
	c := h.client()

	result, err := c.Upload("note.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !result.Success || result.ChunkCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	status := h.coordinator.Status()
	fv, ok := status.Files["note.txt"]
	if !ok || len(fv.Chunks) != 1 || fv.Chunks[0] != "note.txt_chunk_0" {
		t.Fatalf("unexpected files view: %+v", fv)
	}
	cv := status.Chunks["note.txt_chunk_0"]
	if len(cv.Servers) != 2 {
		t.Fatalf("expected 2 replicas registered (the allocated set), got %v", cv.Servers)
	}
}

// Upload + Download round-trip across multiple chunks.
func TestUploadDownloadRoundTrip(t *testing.T) {
	h := newHarness(t, 3)
	c := h.client()

	content := make([]byte, 1<<20+500)
	for i := range content {
		content[i] = byte(i % 251)
	}

	result, err := c.Upload("blob.bin", content)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !result.Success || result.ChunkCount != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	got, err := c.Download("blob.bin")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(got) != len(content) {
		t.Fatalf("downloaded length = %d, want %d", len(got), len(content))
	}
	for i := range content {
		if got[i] != content[i] {
			t.Fatalf("byte mismatch at offset %d: got %x want %x", i, got[i], content[i])
		}
	}
}

func TestUploadFailsWithNoActiveNodes(t *testing.T) {
	h := newHarness(t, 0)
	c := h.client()

	if _, err := c.Upload("a.txt", []byte("x")); err == nil {
		t.Fatal("expected Upload to fail with no active nodes")
	}
}
