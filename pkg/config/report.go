package config

import (
	"time"
)

type ReportConfig struct {
	Timezone         string
	GeneralPoolJobID string
	CacheTTL         time.Duration
	ArchiveExports   bool
	ArchivePrefix    string
	ArchiveRetention time.Duration
	JanitorInterval  time.Duration
}

// Location resolves Timezone; Validate guarantees it loads.
func (rc ReportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(rc.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func loadReportConfig() ReportConfig {
	return ReportConfig{
		Timezone:         getEnv("REPORT_TIMEZONE", "UTC"),
		GeneralPoolJobID: getEnv("REPORT_GENERAL_POOL_JOB_ID", "general-pool"),
		CacheTTL:         getEnvDuration("REPORT_CACHE_TTL", 30*time.Second),
		ArchiveExports:   getEnvBool("REPORT_ARCHIVE_EXPORTS", false),
		ArchivePrefix:    getEnv("REPORT_ARCHIVE_PREFIX", "reports"),
		ArchiveRetention: getEnvDuration("REPORT_ARCHIVE_RETENTION", 30*24*time.Hour),
		JanitorInterval:  getEnvDuration("REPORT_JANITOR_INTERVAL", 6*time.Hour),
	}
}
