package coordinator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
)

// directory is the authoritative files+chunks map, guarded independently
// from membership so a slow placement scan never blocks heartbeats.
// Grounded on internal/distributor/distributor.go's FileInfo/ChunkInfo maps,
// re-keyed from content-addressed chunk IDs to a "<filename>_chunk_<i>"
// scheme.
type directory struct {
	mu                sync.RWMutex
	files             map[string]*FileEntry
	chunks            map[string]*ChunkRecord
	chunkSize         int64
	replicationFactor int
	snapshotPath      string
	log               *logrus.Entry
}

func newDirectory(chunkSize int64, replicationFactor int, snapshotPath string, log *logrus.Entry) *directory {
	d := &directory{
		files:             make(map[string]*FileEntry),
		chunks:            make(map[string]*ChunkRecord),
		chunkSize:         chunkSize,
		replicationFactor: replicationFactor,
		snapshotPath:      snapshotPath,
		log:               log,
	}
	d.load()
	return d
}

// snapshotDoc is the on-disk shape of chunks.json.
type snapshotDoc struct {
	Files  map[string]snapshotFile  `json:"files"`
	Chunks map[string]snapshotChunk `json:"chunks"`
}

type snapshotFile struct {
	Filename   string   `json:"filename"`
	Chunks     []string `json:"chunks"`
	UploadTime int64    `json:"upload_time"`
}

type snapshotChunk struct {
	ChunkID  string   `json:"chunk_id"`
	Filename string   `json:"filename"`
	Servers  []string `json:"servers"`
}

func (d *directory) load() {
	data, err := os.ReadFile(d.snapshotPath)
	if err != nil {
		return // no prior snapshot; start empty
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		d.log.WithError(err).Warn("ignoring unreadable directory snapshot")
		return
	}
	for name, f := range doc.Files {
		d.files[name] = &FileEntry{
			Filename:   f.Filename,
			Chunks:     f.Chunks,
			UploadTime: time.Unix(f.UploadTime, 0),
		}
	}
	for id, c := range doc.Chunks {
		rec := &ChunkRecord{ChunkID: c.ChunkID, Filename: c.Filename, Replicas: make(map[string]struct{})}
		for _, s := range c.Servers {
			rec.Replicas[s] = struct{}{}
		}
		d.chunks[id] = rec
	}
}

// persist writes the directory to a temp file and renames it into place for
// crash safety. Caller must hold d.mu (at least RLock is insufficient since
// this reads the same fields a writer just mutated; callers always hold the
// write lock when persisting).
func (d *directory) persist() error {
	doc := snapshotDoc{
		Files:  make(map[string]snapshotFile, len(d.files)),
		Chunks: make(map[string]snapshotChunk, len(d.chunks)),
	}
	for name, f := range d.files {
		doc.Files[name] = snapshotFile{Filename: f.Filename, Chunks: f.Chunks, UploadTime: f.UploadTime.Unix()}
	}
	for id, c := range d.chunks {
		doc.Chunks[id] = snapshotChunk{ChunkID: c.ChunkID, Filename: c.Filename, Servers: c.ReplicaList()}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(d.snapshotPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".chunks-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, d.snapshotPath)
}

func numChunks(filesize, chunkSize int64) int {
	if filesize <= 0 {
		return 0
	}
	n := filesize / chunkSize
	if filesize%chunkSize != 0 {
		n++
	}
	return int(n)
}

// allocate computes placements for a new file using a round-robin formula
// seeded by chunk index over the currently-active node list.
func (d *directory) allocate(filename string, filesize int64, active []NodeInfo) ([]wire.Allocation, error) {
	if len(active) == 0 {
		return nil, wire.NewNoCapacity("No active servers")
	}

	n := numChunks(filesize, d.chunkSize)
	allocations := make([]wire.Allocation, 0, n)
	replicaCount := d.replicationFactor
	if replicaCount > len(active) {
		replicaCount = len(active)
	}

	for i := 0; i < n; i++ {
		chunkID := fmt.Sprintf("%s_chunk_%d", filename, i)
		servers := make([]string, 0, replicaCount)
		for k := 0; k < replicaCount; k++ {
			servers = append(servers, active[(i+k)%len(active)].NodeID)
		}
		allocations = append(allocations, wire.Allocation{ChunkID: chunkID, Servers: servers, Index: i})
	}
	return allocations, nil
}

// register records (or overwrites) a chunk's replica set and appends the
// chunk to its file's entry, trusting the caller-provided set verbatim,
// the coordinator never verifies the payload actually landed on those
// servers. Duplicate registrations for the same filename append again
// rather than deduplicating; this is observed, not silently fixed,
// behavior.
func (d *directory) register(filename, chunkID string, servers []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.files[filename]
	if !ok {
		f = &FileEntry{Filename: filename, UploadTime: time.Now()}
		d.files[filename] = f
	}
	f.Chunks = append(f.Chunks, chunkID)

	rec := &ChunkRecord{ChunkID: chunkID, Filename: filename, Replicas: make(map[string]struct{}, len(servers))}
	for _, s := range servers {
		rec.Replicas[s] = struct{}{}
	}
	d.chunks[chunkID] = rec

	if err := d.persist(); err != nil {
		return wire.NewInternal("failed to persist directory snapshot")
	}
	return nil
}

func (d *directory) fileView(filename string) (wire.FileView, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.files[filename]
	if !ok {
		return wire.FileView{}, false
	}
	return wire.FileView{Filename: f.Filename, Chunks: append([]string(nil), f.Chunks...), UploadTime: f.UploadTime.Unix()}, true
}

func (d *directory) snapshotViews() (map[string]wire.FileView, map[string]wire.ChunkView) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	files := make(map[string]wire.FileView, len(d.files))
	for name, f := range d.files {
		files[name] = wire.FileView{Filename: f.Filename, Chunks: append([]string(nil), f.Chunks...), UploadTime: f.UploadTime.Unix()}
	}
	chunks := make(map[string]wire.ChunkView, len(d.chunks))
	for id, c := range d.chunks {
		chunks[id] = wire.ChunkView{ChunkID: c.ChunkID, Filename: c.Filename, Servers: c.ReplicaList()}
	}
	return files, chunks
}
