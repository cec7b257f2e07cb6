package coordinator

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestCoordinator(t *testing.T, timeout time.Duration) *Coordinator {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "coord-test-"+t.Name())
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("cleanup temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	cfg := Config{
		HeartbeatInterval: time.Hour, // tests drive the detector manually
		HeartbeatTimeout:  timeout,
		ReplicationFactor: 2,
		ChunkSize:         1 << 20,
		DataDir:           dir,
	}
	c := New(cfg, logrus.NewEntry(logger))
	t.Cleanup(c.Stop)
	return c
}

// Allocation fails when no storage nodes have ever sent a heartbeat.
func TestAllocateChunksEmptyClusterFails(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	_, err := c.AllocateChunks("a.txt", 1048576)
	if err == nil {
		t.Fatal("expected NO_CAPACITY error with no active nodes")
	}
}

// Allocation count tracks file size: ceil(filesize / chunk_size), zero for
// an empty file.
func TestAllocationCount(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	c.Heartbeat("n0", "localhost", 9001)

	cases := []struct {
		size int64
		want int
	}{
		{0, 0},
		{1, 1},
		{1 << 20, 1},
		{1<<20 + 1, 2},
		{2 * (1 << 20), 2},
	}
	for _, tc := range cases {
		allocs, err := c.AllocateChunks("f.bin", tc.size)
		if err != nil {
			t.Fatalf("size %d: unexpected error: %v", tc.size, err)
		}
		if len(allocs) != tc.want {
			t.Errorf("size %d: got %d allocations, want %d", tc.size, len(allocs), tc.want)
		}
	}
}

// A single-node cluster with a replication factor of 2 still allocates,
// just with only one replica.
func TestAllocateSingleNodeClustersR1(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	c.Heartbeat("n0", "localhost", 9001)

	allocs, err := c.AllocateChunks("a.txt", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocs) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocs))
	}
	a := allocs[0]
	if a.ChunkID != "a.txt_chunk_0" {
		t.Errorf("chunk_id = %q, want a.txt_chunk_0", a.ChunkID)
	}
	if len(a.Servers) != 1 || a.Servers[0] != "n0" {
		t.Errorf("servers = %v, want [n0]", a.Servers)
	}
}

// Three-chunk round-robin placement with a replication factor of 2 over
// three nodes spreads replicas evenly, rotating by chunk index.
func TestAllocateRoundRobinSpread(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	c.Heartbeat("n0", "h", 1)
	c.Heartbeat("n1", "h", 2)
	c.Heartbeat("n2", "h", 3)

	allocs, err := c.AllocateChunks("big.bin", 2*(1<<20)+1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocs) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(allocs))
	}
	want := [][]string{{"n0", "n1"}, {"n1", "n2"}, {"n2", "n0"}}
	for i, a := range allocs {
		if a.Servers[0] != want[i][0] || a.Servers[1] != want[i][1] {
			t.Errorf("chunk %d servers = %v, want %v", i, a.Servers, want[i])
		}
	}
}

// Chunk IDs follow the "<filename>_chunk_<index>" format.
func TestChunkIDFormat(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	c.Heartbeat("n0", "h", 1)
	allocs, _ := c.AllocateChunks("report.pdf", 3*(1<<20))
	for i, a := range allocs {
		want := "report.pdf_chunk_" + strconv.Itoa(i)
		if a.ChunkID != want {
			t.Errorf("allocation %d chunk_id = %q, want %q", i, a.ChunkID, want)
		}
	}
}

// Registering a chunk updates both the file's chunk list and the chunk's
// replica set, visible through Status, and writes the directory snapshot
// file.
func TestRegisterChunkAndStatus(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	c.Heartbeat("n0", "h", 1)
	c.Heartbeat("n1", "h", 2)

	allocs, err := c.AllocateChunks("note.txt", 5)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := c.RegisterChunk("note.txt", allocs[0].ChunkID, allocs[0].Servers); err != nil {
		t.Fatalf("register: %v", err)
	}

	status := c.Status()
	fv, ok := status.Files["note.txt"]
	if !ok {
		t.Fatal("expected note.txt in status files")
	}
	if len(fv.Chunks) != 1 || fv.Chunks[0] != "note.txt_chunk_0" {
		t.Errorf("files[note.txt].chunks = %v", fv.Chunks)
	}
	cv, ok := status.Chunks["note.txt_chunk_0"]
	if !ok {
		t.Fatal("expected chunk record in status")
	}
	if len(cv.Servers) != len(allocs[0].Servers) {
		t.Errorf("chunk servers = %v, want %v", cv.Servers, allocs[0].Servers)
	}

	// directory snapshot was written to disk
	snapshotPath := filepath.Join(c.directory.snapshotPath)
	if _, err := os.Stat(snapshotPath); err != nil {
		t.Errorf("expected snapshot file to exist: %v", err)
	}
}

// Failure detection and re-replication converge back to full replication.
//
// Only n0 is failed, via the administrative SimulateFailure path, which
// isolates a single failure so n1 and n2 stay active and reReplicate has a
// candidate to promote. The chunk ID is chosen so the deterministic
// hash(chunk_id) mod len(active) picks n2, the active node not already
// holding the chunk, letting the test assert convergence back to R=2
// instead of just the failed node's removal.
func TestFailureDetectionAndReReplication(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	c.Heartbeat("n0", "h", 1)
	c.Heartbeat("n1", "h", 2)
	c.Heartbeat("n2", "h", 3)

	if err := c.RegisterChunk("f.txt", "f.txt_chunk_1", []string{"n0", "n1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if !c.SimulateFailure("n0") {
		t.Fatal("expected SimulateFailure(n0) to return true")
	}

	n0, _ := c.membership.Lookup("n0")
	if n0.Status != StatusFailed {
		t.Fatalf("expected n0 failed, got %s", n0.Status)
	}

	status := c.Status()
	rec := status.Chunks["f.txt_chunk_1"]
	if len(rec.Servers) != 2 {
		t.Fatalf("expected replica set size 2 after re-replication, got %v", rec.Servers)
	}
	want := map[string]bool{"n1": true, "n2": true}
	for _, s := range rec.Servers {
		if s == "n0" {
			t.Errorf("failed node n0 should have been removed from replica set, got %v", rec.Servers)
		}
		if !want[s] {
			t.Errorf("unexpected replica %q, want one of n1/n2", s)
		}
	}
}

// administrative SimulateFailure path, independent of the timeout detector.
func TestSimulateFailureUnknownNode(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	if c.SimulateFailure("ghost") {
		t.Fatal("expected SimulateFailure on unknown node to return false")
	}
}

// Repeated heartbeats from the same node refresh its info without creating
// duplicate membership entries.
func TestIdempotentHeartbeat(t *testing.T) {
	c := newTestCoordinator(t, 15*time.Second)
	for i := 0; i < 5; i++ {
		c.Heartbeat("n0", "host-a", 1000+i)
	}
	active := c.membership.ActiveNodes()
	if len(active) != 1 {
		t.Fatalf("expected exactly one membership entry, got %d", len(active))
	}
	if active[0].Port != 1004 {
		t.Errorf("expected latest port 1004, got %d", active[0].Port)
	}
}
