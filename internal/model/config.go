package model

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Logging  LoggingConfig
	Security SecurityConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    int
	Host    string
	Timeout int // seconds
}

// CatalogConfig holds video catalog API configuration
type CatalogConfig struct {
	BaseURL string
	APIKey  string
	Timeout int // seconds
}

// PipelineConfig holds fetch/transcode pipeline configuration
type PipelineConfig struct {
	YtdlpPath string
	Timeout   int // seconds, 0 means no limit
}

// StorageConfig holds temp workspace configuration
type StorageConfig struct {
	WorkspaceRoot   string
	JobTTLSeconds   int // how long finished job artifacts are kept
	CleanupInterval int // seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string
	FilePath string
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	AllowedDomains []string
	MaxTitleLength int
}
