package coordinator

import (
	"hash/fnv"
)

func hashChunkID(chunkID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(chunkID))
	return h.Sum64()
}

// reReplicate runs a directory-only repair pass for one failed node: every
// affected ChunkRecord drops the failed node and, if under-replicated,
// gains a deterministically-chosen candidate. Held under the directory lock
// for its full scan, matching internal/dfs/dfs_core.go's handleNodeFailure
// -> findChunksOnNode -> createAdditionalReplicas pipeline, collapsed to
// directory-only: no byte-copy RPC actually moves chunk data to the new
// replica.
func (d *directory) reReplicate(failedNodeID string, active []NodeInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(active) == 0 {
		d.log.WithField("node_id", failedNodeID).Warn("re-replication skipped: no active nodes")
		return
	}

	activeIDs := make([]string, len(active))
	for i, n := range active {
		activeIDs[i] = n.NodeID
	}

	changed := false
	for _, rec := range d.chunks {
		if _, present := rec.Replicas[failedNodeID]; !present {
			continue
		}
		delete(rec.Replicas, failedNodeID)
		changed = true

		if len(rec.Replicas) < d.replicationFactor {
			candidate := activeIDs[hashChunkID(rec.ChunkID)%uint64(len(activeIDs))]
			if _, already := rec.Replicas[candidate]; !already {
				rec.Replicas[candidate] = struct{}{}
			}
		}
	}

	if !changed {
		return
	}
	if err := d.persist(); err != nil {
		d.log.WithError(err).Error("failed to persist directory after re-replication")
	}
}
