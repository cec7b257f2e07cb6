package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohdarsh786/Mini-Google-File-System/internal/wire"
)

// Download re-derives a file's ordered chunk list from the coordinator's
// status surface and fetches each chunk from the first replica that
// answers, falling back to the next listed replica on failure, the
// read-side mirror of Upload's fan-out. The write path's wire protocol is
// fully documented; the read path is only implied by "client reads from
// any storage node holding a live replica", so this fills that gap.
func (c *Client) Download(filename string) ([]byte, error) {
	status, err := c.fetchStatus()
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}

	file, ok := status.Files[filename]
	if !ok {
		return nil, fmt.Errorf("unknown file %q", filename)
	}

	result := make([]byte, 0)
	for _, chunkID := range file.Chunks {
		rec, ok := status.Chunks[chunkID]
		if !ok {
			return nil, fmt.Errorf("directory has no chunk record for %q", chunkID)
		}
		slice, err := c.fetchChunk(chunkID, rec.Servers)
		if err != nil {
			return nil, fmt.Errorf("fetch chunk %q: %w", chunkID, err)
		}
		result = append(result, slice...)
	}
	return result, nil
}

func (c *Client) fetchStatus() (wire.StatusResponse, error) {
	resp, err := c.HTTPClient.Get(c.CoordinatorURL + "/status")
	if err != nil {
		return wire.StatusResponse{}, err
	}
	defer resp.Body.Close()
	var status wire.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return wire.StatusResponse{}, err
	}
	return status, nil
}

func (c *Client) fetchChunk(chunkID string, servers []string) ([]byte, error) {
	var lastErr error
	for _, nodeID := range servers {
		addr, err := c.Resolver.Resolve(nodeID)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := c.HTTPClient.Get("http://" + addr + "/download/" + chunkID)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("replica %s returned status %d", nodeID, resp.StatusCode)
			continue
		}
		var dl wire.DownloadResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&dl)
		resp.Body.Close()
		if decodeErr != nil {
			lastErr = decodeErr
			continue
		}
		if dl.IsBinary {
			return base64.StdEncoding.DecodeString(dl.Data)
		}
		return []byte(dl.Data), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no replicas listed for chunk %q", chunkID)
	}
	return nil, lastErr
}
