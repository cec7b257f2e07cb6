// Package wire holds the JSON request/response shapes exchanged between
// coordinator, storage nodes, and the ingest client, plus the shared error
// taxonomy (errors.go). Keeping these in one package avoids the coordinator
// and client packages import-cycling on each other's request types.
package wire

// --- Coordinator endpoints ---

type HeartbeatRequest struct {
	ServerID string `json:"server_id"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

type HeartbeatResponse struct {
	Status string `json:"status"`
}

type AllocateChunksRequest struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
}

type Allocation struct {
	ChunkID string   `json:"chunk_id"`
	Servers []string `json:"servers"`
	Index   int      `json:"index"`
}

type AllocateChunksResponse struct {
	Allocations []Allocation `json:"allocations"`
}

type RegisterChunkRequest struct {
	Filename string   `json:"filename"`
	ChunkID  string   `json:"chunk_id"`
	Servers  []string `json:"servers"`
}

type RegisterChunkResponse struct {
	Success bool `json:"success"`
}

type SimulateFailureRequest struct {
	ServerID string `json:"server_id"`
}

type SimulateFailureResponse struct {
	Success bool `json:"success"`
}

// NodeView is the status-surface projection of a NodeInfo.
type NodeView struct {
	NodeID        string `json:"node_id"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	LastHeartbeat int64  `json:"last_heartbeat"`
	Status        string `json:"status"`
}

type FileView struct {
	Filename   string   `json:"filename"`
	Chunks     []string `json:"chunks"`
	UploadTime int64    `json:"upload_time"`
}

type ChunkView struct {
	ChunkID  string   `json:"chunk_id"`
	Filename string   `json:"filename"`
	Servers  []string `json:"servers"`
}

type StatusResponse struct {
	Servers           map[string]NodeView  `json:"servers"`
	Files             map[string]FileView  `json:"files"`
	Chunks            map[string]ChunkView `json:"chunks"`
	FaultTolerancePct float64              `json:"fault_tolerance"`
	Timestamp         int64                `json:"timestamp"`
}

type LogEntry struct {
	Timestamp int64  `json:"timestamp"`
	Server    string `json:"server"`
	Event     string `json:"event"`
}

type LogsResponse struct {
	Logs []LogEntry `json:"logs"`
}

// --- Storage-node endpoints ---

// UploadRequest is the JSON upload shape (chunk_server.py-flavored): binary
// payloads travel base64-encoded with is_binary=true.
type UploadRequest struct {
	ChunkID  string `json:"chunk_id"`
	Data     string `json:"data"`
	IsBinary bool   `json:"is_binary"`
	Filename string `json:"filename"`
}

type UploadResponse struct {
	Success  bool   `json:"success"`
	ChunkID  string `json:"chunk_id"`
	ServerID string `json:"server_id"`
	Category string `json:"category"`
}

type DownloadResponse struct {
	ChunkID  string `json:"chunk_id"`
	Data     string `json:"data"`
	IsBinary bool   `json:"is_binary"`
}

type HealthResponse struct {
	ServerID         string         `json:"server_id"`
	Status           string         `json:"status"`
	ChunksStored     int            `json:"chunks_stored"`
	ChunksByCategory map[string]int `json:"chunks_by_category"`
}

type CategoryInfo struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

type StorageInfoResponse struct {
	ServerID   string                  `json:"server_id"`
	Categories map[string]CategoryInfo `json:"categories"`
}
