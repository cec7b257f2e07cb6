package storagenode

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/httpserver"
)

// RegisterRoutes wires a storage node's endpoints. /upload accepts both
// wire shapes found in the original chunk-server implementations (JSON
// base64 and url-encoded form text), dispatched on Content-Type.
func RegisterRoutes(s *httpserver.Server, n *Node, log *logrus.Entry) {
	s.Handle(httpserver.Route{Method: http.MethodPost, Path: "/upload", Handler: handleUpload(n, log)})
	s.HandlePrefix(http.MethodGet, "/download/", handleDownload(n))
	s.Handle(httpserver.Route{Method: http.MethodGet, Path: "/health", Handler: handleHealth(n)})
	s.Handle(httpserver.Route{Method: http.MethodGet, Path: "/storage", Handler: handleStorageInfo(n)})
}

func handleUpload(n *Node, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var chunkID, filename string
		var payload []byte

		contentType := r.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "application/json") {
			var req wire.UploadRequest
			if err := decodeJSON(r, &req); err != nil {
				httpserver.WriteError(w, wire.AsCoded(err).Code.HTTPStatus(), err.Error())
				return
			}
			chunkID = req.ChunkID
			filename = req.Filename
			if req.IsBinary {
				decoded, err := base64.StdEncoding.DecodeString(req.Data)
				if err != nil {
					httpserver.WriteError(w, http.StatusBadRequest, "invalid base64 data")
					return
				}
				payload = decoded
			} else {
				payload = []byte(req.Data)
			}
		} else {
			if err := r.ParseForm(); err != nil {
				httpserver.WriteError(w, http.StatusBadRequest, "invalid form body")
				return
			}
			chunkID = r.FormValue("chunk_id")
			filename = r.FormValue("filename")
			payload = []byte(r.FormValue("data"))
		}

		category, err := n.Store.Put(chunkID, payload, filename)
		if err != nil {
			ce := wire.AsCoded(err)
			httpserver.WriteError(w, ce.Code.HTTPStatus(), ce.Message)
			return
		}
		log.WithField("chunk_id", chunkID).WithField("category", category).Info("chunk stored")
		httpserver.WriteJSON(w, http.StatusOK, wire.UploadResponse{
			Success:  true,
			ChunkID:  chunkID,
			ServerID: n.ServerID,
			Category: string(category),
		})
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return wire.NewBadRequest("invalid JSON body")
	}
	return nil
}

func handleDownload(n *Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chunkID := strings.TrimPrefix(r.URL.Path, "/download/")
		if chunkID == "" {
			httpserver.WriteError(w, http.StatusBadRequest, "chunk_id is required")
			return
		}
		payload, isBinary, _, err := n.Store.Get(chunkID)
		if err != nil {
			ce := wire.AsCoded(err)
			httpserver.WriteError(w, ce.Code.HTTPStatus(), ce.Message)
			return
		}
		data := string(payload)
		if isBinary {
			data = base64.StdEncoding.EncodeToString(payload)
		}
		httpserver.WriteJSON(w, http.StatusOK, wire.DownloadResponse{ChunkID: chunkID, Data: data, IsBinary: isBinary})
	}
}

func handleHealth(n *Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, byCategory := n.Store.Health()
		byCategoryStr := make(map[string]int, len(byCategory))
		for c, count := range byCategory {
			byCategoryStr[string(c)] = count
		}
		httpserver.WriteJSON(w, http.StatusOK, wire.HealthResponse{
			ServerID:         n.ServerID,
			Status:           "ok",
			ChunksStored:     total,
			ChunksByCategory: byCategoryStr,
		})
	}
}

func handleStorageInfo(n *Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := n.Store.StorageInfo()
		categories := make(map[string]wire.CategoryInfo, len(info))
		for c, listing := range info {
			categories[string(c)] = wire.CategoryInfo{Count: listing.Count, Files: listing.Files}
		}
		httpserver.WriteJSON(w, http.StatusOK, wire.StorageInfoResponse{ServerID: n.ServerID, Categories: categories})
	}
}
