// Command client is the ingest client CLI: it chunks a local file, fans it
// out to the cluster's storage nodes, registers it with the coordinator,
// and can read it back.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/mohdarsh786/Mini-Google-File-System/config"
	ingestclient "github.com/mohdarsh786/Mini-Google-File-System/internal/client"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/env"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/logging"
)

func main() {
	env.LoadEnv()
	logging.InitLogger(env.GetEnv("DEBUG", "") == "true")
	log := logging.WithRole("client")

	action := flag.String("action", "upload", "upload or download")
	localPath := flag.String("file", "", "local file path (source for upload, destination for download)")
	remoteName := flag.String("name", "", "filename as known to the cluster (defaults to the local file's base name)")
	coordinatorURL := flag.String("coordinator", "", "coordinator base URL, overrides config")
	flag.Parse()

	if *localPath == "" {
		log.Fatal("-file is required")
	}

	cfg := config.LoadClientConfig()
	if *coordinatorURL != "" {
		cfg.CoordinatorURL = *coordinatorURL
	}

	resolver := ingestclient.CoordinatorResolver{CoordinatorURL: cfg.CoordinatorURL}
	c := ingestclient.New(cfg.CoordinatorURL, resolver, cfg.ChunkSize, log)
	c.HTTPClient.Timeout = cfg.RequestTimeout

	filename := *remoteName
	if filename == "" {
		filename = filepath.Base(*localPath)
	}

	switch *action {
	case "upload":
		content, err := os.ReadFile(*localPath)
		if err != nil {
			log.WithError(err).Fatal("failed to read local file")
		}
		result, err := c.Upload(filename, content)
		if err != nil {
			log.WithError(err).Fatal("upload failed")
		}
		log.WithField("filename", result.Filename).WithField("chunks", result.ChunkCount).WithField("success", result.Success).Info("upload complete")
	case "download":
		content, err := c.Download(filename)
		if err != nil {
			log.WithError(err).Fatal("download failed")
		}
		if err := os.WriteFile(*localPath, content, 0o644); err != nil {
			log.WithError(err).Fatal("failed to write local file")
		}
		log.WithField("filename", filename).WithField("bytes", len(content)).Info("download complete")
	default:
		log.Fatalf("unknown action %q (want upload or download)", *action)
	}
}
