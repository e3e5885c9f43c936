package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLocalPutListDelete(t *testing.T) {
	ctx := context.Background()
	st := NewLocal(t.TempDir(), "http://localhost:8080/uploads/")

	require.NoError(t, st.Put(ctx, "comprobantes/2025/03/a.pdf", []byte("%PDF-1.4"), "application/pdf"))
	require.NoError(t, st.Put(ctx, "/comprobantes/2025/03/b.webp", []byte("x"), "image/webp"))

	objs, err := st.List(ctx, "comprobantes/")
	require.NoError(t, err)
	keys := []string{}
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	assert.ElementsMatch(t, []string{"comprobantes/2025/03/a.pdf", "comprobantes/2025/03/b.webp"}, keys)

	require.NoError(t, st.Delete(ctx, "comprobantes/2025/03/a.pdf", "comprobantes/2025/03/missing.pdf"))
	objs, err = st.List(ctx, "comprobantes/")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "comprobantes/2025/03/b.webp", objs[0].Key)
}

func TestLocalListMissingPrefix(t *testing.T) {
	st := NewLocal(t.TempDir(), "http://localhost/uploads")
	objs, err := st.List(context.Background(), "comprobantes/")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestLocalURLs(t *testing.T) {
	st := NewLocal(t.TempDir(), "http://localhost/uploads/")

	u := st.PublicURL("comprobantes/2025/03/a.webp")
	assert.Equal(t, "http://localhost/uploads/comprobantes/2025/03/a.webp", u)

	key, ok := st.KeyFromURL(u)
	assert.True(t, ok)
	assert.Equal(t, "comprobantes/2025/03/a.webp", key)

	_, ok = st.KeyFromURL("https://bucket.oss-ap-southeast-5.aliyuncs.com/comprobantes/a.webp")
	assert.False(t, ok)
	_, ok = st.KeyFromURL("http://localhost/uploads/")
	assert.False(t, ok)
}

func TestLocalRejectsTraversal(t *testing.T) {
	st := NewLocal(t.TempDir(), "http://localhost/uploads")
	ctx := context.Background()

	err := st.Put(ctx, "../escape.txt", []byte("x"), "text/plain")
	assert.EqualError(t, err, "invalid object key")
	err = st.Delete(ctx, "comprobantes/../../etc/passwd")
	assert.EqualError(t, err, "invalid object key")
	_, err = st.List(ctx, "")
	assert.Error(t, err)
}

func TestNewFallsBackToLocal(t *testing.T) {
	st := New(Config{OSSEndpoint: "oss-ap-southeast-5.aliyuncs.com", LocalDir: t.TempDir(), LocalBaseURL: "http://localhost/uploads"})
	assert.Equal(t, "local", st.Name())
}

func TestToWebPShrinks(t *testing.T) {
	out, err := ToWebP(pngBytes(t, 400, 200), WebPOptions{MaxW: 100, MaxH: 100, Quality: 70})
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestToWebPNeverEnlarges(t *testing.T) {
	out, err := ToWebP(pngBytes(t, 40, 30), DefaultWebP)
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestToWebPRejectsGarbage(t *testing.T) {
	_, err := ToWebP(nil, DefaultWebP)
	assert.Error(t, err)
	_, err = ToWebP([]byte("not an image"), DefaultWebP)
	assert.Error(t, err)
}

type reaperFixture struct {
	st  *Local
	db  *gorm.DB
	now time.Time
}

func newReaperFixture(t *testing.T) reaperFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Exec("CREATE TABLE refs (url TEXT)").Error)

	f := reaperFixture{
		st:  NewLocal(t.TempDir(), "http://localhost/uploads"),
		db:  db,
		now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	ctx := context.Background()
	old := f.now.Add(-96 * time.Hour)
	for key, mod := range map[string]time.Time{
		"comprobantes/2025/03/kept.webp":   old,
		"comprobantes/2025/03/orphan.webp": old,
		"comprobantes/2025/03/fresh.pdf":   f.now.Add(-time.Hour),
	} {
		require.NoError(t, f.st.Put(ctx, key, []byte("x"), ""))
		p := filepath.Join(f.st.Dir, filepath.FromSlash(key))
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	require.NoError(t, db.Exec("INSERT INTO refs (url) VALUES (?)", f.st.PublicURL("comprobantes/2025/03/kept.webp")).Error)
	return f
}

func (f reaperFixture) cfg(dry bool) ReaperConfig {
	return ReaperConfig{
		Prefix:    "comprobantes/",
		Retention: 72 * time.Hour,
		DryRun:    dry,
		RefTable:  "refs",
		RefColumn: "url",
	}
}

func TestReapOrphansRemovesOnlyOldUnreferenced(t *testing.T) {
	f := newReaperFixture(t)
	ctx := context.Background()

	n, err := ReapOrphans(ctx, f.st, f.db, f.cfg(false), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	objs, err := f.st.List(ctx, "comprobantes/")
	require.NoError(t, err)
	keys := []string{}
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	assert.ElementsMatch(t, []string{"comprobantes/2025/03/kept.webp", "comprobantes/2025/03/fresh.pdf"}, keys)
}

func TestReapOrphansDryRunKeepsFiles(t *testing.T) {
	f := newReaperFixture(t)
	ctx := context.Background()

	n, err := ReapOrphans(ctx, f.st, f.db, f.cfg(true), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	objs, err := f.st.List(ctx, "comprobantes/")
	require.NoError(t, err)
	assert.Len(t, objs, 3)
}
