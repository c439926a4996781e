package config

const (
	DefaultDatabasePath = "./manuscripts.db"

	// DefaultUploadDir holds uploads waiting for a background import.
	DefaultUploadDir = "./uploads"

	// DefaultMaxUploadBytes caps a single manuscript upload (64 MiB).
	DefaultMaxUploadBytes = 64 << 20
)
