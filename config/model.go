package config

import "github.com/rs/zerolog"

// Config is the explicit state every component is constructed with. There
// is no process-wide working directory or implicit environment.
type Config struct {
	// Container runtime.
	ComposeFile string `json:"compose_file,omitempty"`
	Project     string `json:"project,omitempty"`
	AppService  string `json:"app_service" validate:"required"`
	DBService   string `json:"db_service" validate:"required"`

	// Database credentials used through the runtime gateway.
	DBUser string `json:"db_user" validate:"required"`
	DBName string `json:"db_name" validate:"required"`

	// Filesystem layout.
	DataDir   string `json:"data_dir" validate:"required"`
	EnvFile   string `json:"env_file" validate:"required"`
	BackupDir string `json:"backup_dir" validate:"required"`

	// Health checks.
	HealthURL     string `json:"health_url" validate:"required,url"`
	DiskPath      string `json:"disk_path,omitempty"`
	DiskThreshold int    `json:"disk_threshold,omitempty" validate:"min=0,max=100"`

	// Bounded waits.
	ReadyTimeout  Duration `json:"ready_timeout,omitempty"`
	ReadyInterval Duration `json:"ready_interval,omitempty"`
	ProbeTimeout  Duration `json:"probe_timeout,omitempty"`
}

func (c Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("app_service", c.AppService)
	e.Str("db_service", c.DBService)
	e.Str("data_dir", c.DataDir)
	e.Str("backup_dir", c.BackupDir)
	e.Str("health_url", c.HealthURL)
	e.Int("disk_threshold", c.DiskThreshold)

	if c.ComposeFile != "" {
		e.Str("compose_file", c.ComposeFile)
	}
	if c.Project != "" {
		e.Str("project", c.Project)
	}
}
