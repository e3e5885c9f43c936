package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSS struct {
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	PublicBase string
}

func normalizeEndpoint(ep string) string {
	ep = strings.TrimSpace(ep)
	if ep == "" || strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://") {
		return ep
	}
	return "https://" + ep
}

func NewOSS(cfg Config) (*OSS, error) {
	endpoint := normalizeEndpoint(cfg.OSSEndpoint)
	var opts []oss.ClientOption
	if cfg.OSSToken != "" {
		opts = append(opts, oss.SecurityToken(cfg.OSSToken))
	}
	client, err := oss.New(endpoint, cfg.OSSAccessKey, cfg.OSSSecretKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}
	if loc, err := client.GetBucketLocation(cfg.OSSBucket); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 {
			log.Printf("[OSS] skip location check (AccessDenied) bucket=%s", cfg.OSSBucket)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", cfg.OSSBucket, loc)
	}
	return &OSS{
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: cfg.OSSBucket,
		PublicBase: strings.TrimRight(strings.TrimSpace(cfg.OSSPublicBase), "/"),
	}, nil
}

func (s *OSS) Name() string { return "oss" }

func (s *OSS) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.Bucket.PutObject(cleanKey(key), bytes.NewReader(body),
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	)
}

func (s *OSS) PublicURL(key string) string {
	key = cleanKey(key)
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, host, key)
}

func (s *OSS) KeyFromURL(publicURL string) (string, bool) {
	prefix := s.PublicURL("")
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(publicURL, prefix)
	return key, key != ""
}

func (s *OSS) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	marker := oss.Marker("")
	for {
		lor, err := s.Bucket.ListObjects(oss.Prefix(cleanKey(prefix)), marker, oss.MaxKeys(1000), oss.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, obj := range lor.Objects {
			if obj.Key != "" {
				out = append(out, Object{Key: obj.Key, LastModified: obj.LastModified})
			}
		}
		if !lor.IsTruncated {
			return out, nil
		}
		marker = oss.Marker(lor.NextMarker)
	}
}

func (s *OSS) Delete(ctx context.Context, keys ...string) error {
	for i := 0; i < len(keys); i += 1000 {
		end := i + 1000
		if end > len(keys) {
			end = len(keys)
		}
		if _, err := s.Bucket.DeleteObjects(keys[i:end], oss.DeleteObjectsQuiet(true), oss.WithContext(ctx)); err != nil {
			return fmt.Errorf("delete batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}
