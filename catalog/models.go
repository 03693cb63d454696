package catalog

import "time"

// Record is one CreateBackup invocation, complete or not. The backup
// directory's naming convention stays the source of truth for restore
// validation; the catalog annotates it with sizes and failure evidence.
type Record struct {
	Timestamp          string `gorm:"primaryKey"`
	CreatedAt          time.Time
	DatabaseDumpPath   string
	FileArchivePath    string
	ConfigSnapshotPath string
	DatabaseDumpSize   int64
	FileArchiveSize    int64
	Complete           bool
	FailedStep         string
}
