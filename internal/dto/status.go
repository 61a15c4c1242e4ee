package dto

type StatusDTO struct {
	App     AppStatusDTO     `json:"app"`
	Storage StorageStatusDTO `json:"storage"`
	Cache   CacheStatusDTO   `json:"cache"`
	Sync    SyncStatusDTO    `json:"sync"`
	Events  EventsStatusDTO  `json:"events"`
}

type AppStatusDTO struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	StartedAt string `json:"started_at"`
	UptimeSec int64  `json:"uptime_sec"`
	SafeMode  bool   `json:"safe_mode"`
}

type StorageStatusDTO struct {
	SchemaVersion  int    `json:"schema_version"`
	SafeModeReason string `json:"safe_mode_reason,omitempty"`
}

type CacheStatusDTO struct {
	TTLSec         int64   `json:"ttl_sec"`
	CachedAt       string  `json:"cached_at,omitempty"`
	LastActivityAt string  `json:"last_activity_at,omitempty"`
	TotalSeconds   float64 `json:"total_seconds"`
	Fetches        int64   `json:"fetches"`
}

type SyncStatusDTO struct {
	Enabled        bool `json:"enabled"`
	ResolvedSkills int  `json:"resolved_skills"`
}

type EventsStatusDTO struct {
	Subscribers int   `json:"subscribers"`
	Dropped     int64 `json:"dropped"`
}
