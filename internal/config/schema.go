package config

import (
	"time"

	"github.com/gyaneshwarpardhi/noticed/internal/projection"
)

// Config is the top-level YAML structure.
type Config struct {
	Version    string             `yaml:"version"`
	Server     ServerConf         `yaml:"server"`
	Relay      RelayConf          `yaml:"relay"`
	Projection projection.Options `yaml:"projection"`
	Archive    ArchiveConf        `yaml:"archive"`
	Log        LogConf            `yaml:"log"`
}

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr           string   `yaml:"addr"`
	ReadTimeoutMs  int      `yaml:"read_timeout_ms"`
	WriteTimeoutMs int      `yaml:"write_timeout_ms"`
	IdleTimeoutMs  int      `yaml:"idle_timeout_ms"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

// RelayConf holds tunable concurrency settings.
type RelayConf struct {
	Workers          int  `yaml:"workers"`
	QueueDepth       int  `yaml:"queue_depth"`
	ProjectTimeoutMs int  `yaml:"project_timeout_ms"`
	LogSink          bool `yaml:"log_sink"`
}

// ProjectTimeout returns the synchronous projection deadline.
func (r RelayConf) ProjectTimeout() time.Duration {
	return time.Duration(r.ProjectTimeoutMs) * time.Millisecond
}

// ArchiveConf selects the optional SQL archive. At most one of SQLitePath
// and PostgresDSN may be set.
type ArchiveConf struct {
	Enabled     bool   `yaml:"enabled"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LogConf controls the process logger.
type LogConf struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}
