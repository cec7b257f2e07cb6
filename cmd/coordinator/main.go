package main

import (
	"fmt"

	"github.com/mohdarsh786/Mini-Google-File-System/config"
	"github.com/mohdarsh786/Mini-Google-File-System/internal/coordinator"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/env"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/httpserver"
	"github.com/mohdarsh786/Mini-Google-File-System/pkg/logging"
)

func main() {
	env.LoadEnv()
	logging.InitLogger(env.GetEnv("DEBUG", "") == "true")
	log := logging.WithRole("coordinator")

	cfg := config.LoadCoordinatorConfig()

	c := coordinator.New(coordinator.Config{
		HeartbeatInterval: cfg.HeartbeatInterval,
		HeartbeatTimeout:  cfg.HeartbeatTimeout,
		ReplicationFactor: cfg.ReplicationFactor,
		ChunkSize:         cfg.ChunkSize,
		DataDir:           cfg.DataDir,
	}, log)
	defer c.Stop()

	server := httpserver.New()
	coordinator.RegisterRoutes(server, c, log)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("coordinator listening")
	if err := server.ListenAndServe(addr); err != nil {
		log.WithError(err).Fatal("coordinator server exited")
	}
}
