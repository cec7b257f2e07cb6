package coordinator

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/httpserver"
)

// RegisterRoutes wires the coordinator's endpoints onto a typed
// route table, replacing master_node.py's do_GET/do_POST string dispatch.
func RegisterRoutes(s *httpserver.Server, c *Coordinator, log *logrus.Entry) {
	s.Handle(httpserver.Route{Method: http.MethodPost, Path: "/heartbeat", Handler: handleHeartbeat(c, log)})
	s.Handle(httpserver.Route{Method: http.MethodPost, Path: "/allocate_chunks", Handler: handleAllocateChunks(c, log)})
	s.Handle(httpserver.Route{Method: http.MethodPost, Path: "/register_chunk", Handler: handleRegisterChunk(c, log)})
	s.Handle(httpserver.Route{Method: http.MethodPost, Path: "/simulate_failure", Handler: handleSimulateFailure(c, log)})
	s.Handle(httpserver.Route{Method: http.MethodGet, Path: "/status", Handler: handleStatus(c)})
	s.Handle(httpserver.Route{Method: http.MethodGet, Path: "/logs", Handler: handleLogs(c)})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return wire.NewBadRequest("invalid JSON body")
	}
	return nil
}

func handleHeartbeat(c *Coordinator, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.HeartbeatRequest
		if err := decodeJSON(r, &req); err != nil {
			httpserver.WriteError(w, wire.AsCoded(err).Code.HTTPStatus(), err.Error())
			return
		}
		if req.ServerID == "" {
			httpserver.WriteError(w, http.StatusBadRequest, "server_id is required")
			return
		}
		c.Heartbeat(req.ServerID, req.Host, req.Port)
		log.WithField("server_id", req.ServerID).Debug("heartbeat received")
		httpserver.WriteJSON(w, http.StatusOK, wire.HeartbeatResponse{Status: "ok"})
	}
}

func handleAllocateChunks(c *Coordinator, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.AllocateChunksRequest
		if err := decodeJSON(r, &req); err != nil {
			httpserver.WriteError(w, wire.AsCoded(err).Code.HTTPStatus(), err.Error())
			return
		}
		if req.Filename == "" {
			httpserver.WriteError(w, http.StatusBadRequest, "filename is required")
			return
		}
		allocations, err := c.AllocateChunks(req.Filename, req.Filesize)
		if err != nil {
			ce := wire.AsCoded(err)
			httpserver.WriteError(w, ce.Code.HTTPStatus(), ce.Message)
			return
		}
		httpserver.WriteJSON(w, http.StatusOK, wire.AllocateChunksResponse{Allocations: allocations})
	}
}

func handleRegisterChunk(c *Coordinator, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.RegisterChunkRequest
		if err := decodeJSON(r, &req); err != nil {
			httpserver.WriteError(w, wire.AsCoded(err).Code.HTTPStatus(), err.Error())
			return
		}
		if req.Filename == "" || req.ChunkID == "" {
			httpserver.WriteError(w, http.StatusBadRequest, "filename and chunk_id are required")
			return
		}
		if err := c.RegisterChunk(req.Filename, req.ChunkID, req.Servers); err != nil {
			ce := wire.AsCoded(err)
			httpserver.WriteError(w, ce.Code.HTTPStatus(), ce.Message)
			return
		}
		log.WithField("chunk_id", req.ChunkID).Info("chunk registered")
		httpserver.WriteJSON(w, http.StatusOK, wire.RegisterChunkResponse{Success: true})
	}
}

func handleSimulateFailure(c *Coordinator, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.SimulateFailureRequest
		if err := decodeJSON(r, &req); err != nil {
			httpserver.WriteError(w, wire.AsCoded(err).Code.HTTPStatus(), err.Error())
			return
		}
		if !c.SimulateFailure(req.ServerID) {
			httpserver.WriteError(w, http.StatusNotFound, "unknown server_id")
			return
		}
		log.WithField("server_id", req.ServerID).Warn("failure simulated")
		httpserver.WriteJSON(w, http.StatusOK, wire.SimulateFailureResponse{Success: true})
	}
}

func handleStatus(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.WriteJSON(w, http.StatusOK, c.Status())
	}
}

func handleLogs(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.WriteJSON(w, http.StatusOK, wire.LogsResponse{Logs: c.Logs()})
	}
}
