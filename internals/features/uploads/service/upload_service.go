package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"colegio_backend/internals/constants"
	"colegio_backend/internals/helpers/storage"
)

var (
	ErrTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupported = errors.New("unsupported file type, use jpg, png, webp or pdf")
	ErrEmpty       = errors.New("empty file")
)

type Service struct {
	Store    storage.Storage
	MaxBytes int64
	WebP     storage.WebPOptions
	Now      func() time.Time
}

func New(st storage.Storage, maxBytes int64) *Service {
	return &Service{Store: st, MaxBytes: maxBytes, WebP: storage.DefaultWebP, Now: time.Now}
}

type Result struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// Upload checks size and sniffed type, converts images to WebP and stores the
// file under comprobantes/YYYY/MM/.
func (s *Service) Upload(ctx context.Context, fh *multipart.FileHeader) (*Result, error) {
	if fh == nil || fh.Size == 0 {
		return nil, ErrEmpty
	}
	if fh.Size > s.MaxBytes {
		return nil, fmt.Errorf("%w (%d bytes max)", ErrTooLarge, s.MaxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return s.Save(ctx, data)
}

// Save is Upload for an in-memory body.
func (s *Service) Save(ctx context.Context, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.MaxBytes {
		return nil, fmt.Errorf("%w (%d bytes max)", ErrTooLarge, s.MaxBytes)
	}

	ct := http.DetectContentType(data)
	kind, ok := constants.UploadTypes[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
	ext := kind.Ext
	if kind.IsImage {
		out, err := storage.ToWebP(data, s.WebP)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		data, ct, ext = out, "image/webp", ".webp"
	}

	key := fmt.Sprintf("%s/%s/%s%s", constants.UploadPrefix, s.Now().UTC().Format("2006/01"), uuid.NewString(), ext)
	if err := s.Store.Put(ctx, key, data, ct); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return &Result{URL: s.Store.PublicURL(key), Key: key, ContentType: ct, Size: len(data)}, nil
}
