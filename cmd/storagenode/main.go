package main

import (
	"fmt"

	"github.com/mohdarsh786/Mini-Google-File-System/config"
	"github.com/mohdarsh786/Mini-Google-File-System/internal/idgen"
	"github.com/mohdarsh786/Mini-Google-File-System/internal/storagenode"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/env"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/httpserver"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/logging"
)

func main() {
	env.LoadEnv()
	logging.InitLogger(env.GetEnv("DEBUG", "") == "true")
	log := logging.WithRole("storagenode")

	cfg := config.LoadStorageNodeConfig()

	serverID := cfg.ServerID
	if serverID == "" {
		serverID = idgen.NewNodeID("chunk-server")
	}

	store, err := storagenode.NewLocalChunkStore(cfg.DataDir, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open chunk store")
	}
	defer store.Close()

	node := storagenode.NewNode(serverID, store, cfg.CoordinatorURL, cfg.Host, cfg.Port, cfg.HeartbeatInterval, log)
	node.StartHeartbeatLoop()
	defer node.Stop()

	server := httpserver.New()
	storagenode.RegisterRoutes(server, node, log)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("server_id", serverID).WithField("addr", addr).Info("storage node listening")
	if err := server.ListenAndServe(addr); err != nil {
		log.WithError(err).Fatal("storage node server exited")
	}
}
