// Package storage keeps uploaded files either in an Aliyun OSS bucket or in a
// local public directory served by the app.
package storage

import (
	"context"
	"log"
	"strings"
	"time"
)

type Object struct {
	Key          string
	LastModified time.Time
}

type Storage interface {
	Name() string
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL; ok is false for URLs of another backend.
	KeyFromURL(publicURL string) (key string, ok bool)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, keys ...string) error
}

type Config struct {
	OSSEndpoint   string
	OSSAccessKey  string
	OSSSecretKey  string
	OSSToken      string
	OSSBucket     string
	OSSPublicBase string

	LocalDir     string
	LocalBaseURL string // e.g. https://api.example.com/uploads
}

func (c Config) ossComplete() bool {
	return c.OSSEndpoint != "" && c.OSSAccessKey != "" && c.OSSSecretKey != "" && c.OSSBucket != ""
}

// New picks OSS when its settings are complete and falls back to the local
// directory otherwise (or when the bucket cannot be opened).
func New(cfg Config) Storage {
	if cfg.ossComplete() {
		s, err := NewOSS(cfg)
		if err == nil {
			log.Printf("[STORAGE] using OSS bucket %s", cfg.OSSBucket)
			return s
		}
		log.Printf("[STORAGE] OSS init failed, falling back to local dir: %v", err)
	}
	log.Printf("[STORAGE] using local dir %s", cfg.LocalDir)
	return NewLocal(cfg.LocalDir, cfg.LocalBaseURL)
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.ReplaceAll(key, "\\", "/"), "/")
}
