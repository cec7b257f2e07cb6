// Package client implements the ingest client's chunk-fan-out upload
// algorithm and, as a read-path gap-fill, a mirrored download/reassembly
// operation.
package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
)

const defaultWorkers = 4

// Client is the ingest client: stateless beyond the per-upload buffers it
// holds transiently. Push concurrency is bounded by a worker pool,
// grounded on internal/chunker/chunker.go's producer/worker-channel
// pattern, adapted here from a compress-then-encrypt-then-store pipeline to
// a push-to-every-replica pipeline.
type Client struct {
	CoordinatorURL string
	Resolver       Resolver
	ChunkSize      int64
	HTTPClient     *http.Client
	Workers        int
	log            *logrus.Entry
}

func New(coordinatorURL string, resolver Resolver, chunkSize int64, log *logrus.Entry) *Client {
	return &Client{
		CoordinatorURL: coordinatorURL,
		Resolver:       resolver,
		ChunkSize:      chunkSize,
		HTTPClient:     &http.Client{Timeout: 10 * time.Second},
		Workers:        defaultWorkers,
		log:            log,
	}
}

// UploadResult summarizes one Upload call for the caller.
type UploadResult struct {
	Filename   string
	ChunkCount int
	Success    bool
}

func (c *Client) allocate(filename string, filesize int64) (wire.AllocateChunksResponse, error) {
	reqBody, _ := json.Marshal(wire.AllocateChunksRequest{Filename: filename, Filesize: filesize})
	resp, err := c.HTTPClient.Post(c.CoordinatorURL+"/allocate_chunks", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return wire.AllocateChunksResponse{}, fmt.Errorf("allocate_chunks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return wire.AllocateChunksResponse{}, fmt.Errorf("allocate_chunks failed: %s", errBody.Error)
	}
	var out wire.AllocateChunksResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return wire.AllocateChunksResponse{}, fmt.Errorf("decode allocate_chunks response: %w", err)
	}
	return out, nil
}

func (c *Client) registerChunk(filename, chunkID string, servers []string) error {
	reqBody, _ := json.Marshal(wire.RegisterChunkRequest{Filename: filename, ChunkID: chunkID, Servers: servers})
	resp, err := c.HTTPClient.Post(c.CoordinatorURL+"/register_chunk", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("register_chunk returned status %d", resp.StatusCode)
	}
	return nil
}

// pushToServer POSTs one chunk slice to one replica. Reports whether the
// replica accepted it (a 2xx response).
func (c *Client) pushToServer(nodeID, chunkID, filename string, slice []byte) bool {
	addr, err := c.Resolver.Resolve(nodeID)
	if err != nil {
		c.log.WithError(err).WithField("node_id", nodeID).Warn("could not resolve replica address")
		return false
	}

	payload := wire.UploadRequest{
		ChunkID:  chunkID,
		Data:     base64.StdEncoding.EncodeToString(slice),
		IsBinary: true,
		Filename: filename,
	}
	body, _ := json.Marshal(payload)

	resp, err := c.HTTPClient.Post("http://"+addr+"/upload", "application/json", bytes.NewReader(body))
	if err != nil {
		c.log.WithError(err).WithField("node_id", nodeID).Warn("chunk push failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Upload implements the two-phase protocol: allocate, push every chunk to
// every assigned replica (best-effort fan-out, the client does not stop
// after the first accepting replica), then register the allocated set. The
// allocated set is registered even when only some replicas accepted the
// chunk; re-replication is expected to top it up later. This is observed,
// not silently-fixed, behavior.
func (c *Client) Upload(filename string, content []byte) (UploadResult, error) {
	allocation, err := c.allocate(filename, int64(len(content)))
	if err != nil {
		return UploadResult{Filename: filename}, err
	}

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	type job struct {
		alloc wire.Allocation
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	pushed := make([]bool, len(allocation.Allocations))
	overallSuccess := true

	worker := func() {
		defer wg.Done()
		for j := range jobs {
			alloc := j.alloc
			start := int64(alloc.Index) * c.ChunkSize
			end := start + c.ChunkSize
			if end > int64(len(content)) {
				end = int64(len(content))
			}
			slice := content[start:end]

			success := false
			for _, server := range alloc.Servers {
				if c.pushToServer(server, alloc.ChunkID, filename, slice) {
					success = true
				}
			}

			pushed[alloc.Index] = success
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}
	for _, alloc := range allocation.Allocations {
		jobs <- job{alloc: alloc}
	}
	close(jobs)
	wg.Wait()

	// Register in chunk-index order so the file's chunk list stays ordered.
	for _, alloc := range allocation.Allocations {
		if !pushed[alloc.Index] {
			c.log.WithField("chunk_id", alloc.ChunkID).Warn("no replica accepted chunk")
			overallSuccess = false
		} else if err := c.registerChunk(filename, alloc.ChunkID, alloc.Servers); err != nil {
			c.log.WithError(err).WithField("chunk_id", alloc.ChunkID).Warn("register_chunk failed")
			overallSuccess = false
		}
	}

	return UploadResult{Filename: filename, ChunkCount: len(allocation.Allocations), Success: overallSuccess}, nil
}
