package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// CoordinatorConfig holds the coordinator process's tunables.
type CoordinatorConfig struct {
	ServerID           string        `mapstructure:"server_id"`
	Port               int           `mapstructure:"server_port"`
	DataDir            string        `mapstructure:"data_dir"`
	HeartbeatInterval  time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout   time.Duration `mapstructure:"heartbeat_timeout"`
	ReplicationFactor  int           `mapstructure:"replication_factor"`
	ChunkSize          int64         `mapstructure:"chunk_size"`
}

// StorageNodeConfig holds a chunk server's tunables.
type StorageNodeConfig struct {
	ServerID          string        `mapstructure:"server_id"`
	Port              int           `mapstructure:"server_port"`
	DataDir           string        `mapstructure:"data_dir"`
	CoordinatorURL    string        `mapstructure:"coordinator_url"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	Host              string        `mapstructure:"host"`
}

// ClientConfig holds the ingest client's tunables.
type ClientConfig struct {
	CoordinatorURL string        `mapstructure:"coordinator_url"`
	ChunkSize      int64         `mapstructure:"chunk_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

const defaultChunkSize = 1 << 20 // 1 MiB

func newViper(configName string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	return v
}

// LoadCoordinatorConfig reads coordinator settings from coordinator.yaml in
// the working directory (if present) and the environment, falling back to
// spec-documented defaults.
func LoadCoordinatorConfig() *CoordinatorConfig {
	v := newViper("coordinator")
	v.SetDefault("server_id", "coordinator")
	v.SetDefault("server_port", 8000)
	v.SetDefault("data_dir", "./data/coordinator")
	v.SetDefault("heartbeat_interval", 5*time.Second)
	v.SetDefault("heartbeat_timeout", 15*time.Second)
	v.SetDefault("replication_factor", 2)
	v.SetDefault("chunk_size", defaultChunkSize)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("⚠️ Could not read coordinator config file, using defaults: %v", err)
	}

	var cfg CoordinatorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode coordinator config into struct: %v", err)
	}
	fmt.Println("✅ Coordinator configuration loaded successfully.")
	return &cfg
}

// LoadStorageNodeConfig reads chunk-server settings from storagenode.yaml
// (if present) and the environment.
func LoadStorageNodeConfig() *StorageNodeConfig {
	v := newViper("storagenode")
	v.SetDefault("server_id", "")
	v.SetDefault("server_port", 9001)
	v.SetDefault("data_dir", "./data/storagenode")
	v.SetDefault("coordinator_url", "http://localhost:8000")
	v.SetDefault("heartbeat_interval", 5*time.Second)
	v.SetDefault("host", "localhost")

	if err := v.ReadInConfig(); err != nil {
		log.Printf("⚠️ Could not read storage-node config file, using defaults: %v", err)
	}

	var cfg StorageNodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode storage-node config into struct: %v", err)
	}
	fmt.Println("✅ Storage-node configuration loaded successfully.")
	return &cfg
}

// LoadClientConfig reads ingest-client settings from client.yaml (if
// present) and the environment.
func LoadClientConfig() *ClientConfig {
	v := newViper("client")
	v.SetDefault("coordinator_url", "http://localhost:8000")
	v.SetDefault("chunk_size", defaultChunkSize)
	v.SetDefault("request_timeout", 10*time.Second)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("⚠️ Could not read client config file, using defaults: %v", err)
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode client config into struct: %v", err)
	}
	fmt.Println("✅ Client configuration loaded successfully.")
	return &cfg
}
