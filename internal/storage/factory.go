package storage

import "fmt"

// Config selects and configures the storage backend.
type Config struct {
	Type      string // "local" or "s3"
	LocalRoot string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// New creates an ObjectStorage instance based on the configuration.
// A kiosk deployment keeps artifacts on local disk; installations with a
// MinIO or S3 endpoint configured get the S3-compatible client.
func New(cfg *Config) (ObjectStorage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.LocalRoot)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
