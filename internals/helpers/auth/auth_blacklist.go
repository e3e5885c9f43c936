package helper

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Tokens are stored as HMAC(raw, secret) so the table never holds usable tokens.
func hmacHex(msg, secret string) string {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(msg))
	return hex.EncodeToString(m.Sum(nil))
}

// AddToBlacklist revokes rawAccessToken until expiresAt.
func AddToBlacklist(ctx context.Context, db *gorm.DB, rawAccessToken, jwtSecret string, expiresAt time.Time) error {
	if db == nil || strings.TrimSpace(rawAccessToken) == "" || strings.TrimSpace(jwtSecret) == "" {
		return nil
	}
	return db.WithContext(ctx).Exec(`
		INSERT INTO token_blacklist (token, expired_at, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET expired_at = excluded.expired_at
	`, hmacHex(rawAccessToken, jwtSecret), expiresAt.UTC(), time.Now().UTC()).Error
}

func IsBlacklisted(ctx context.Context, db *gorm.DB, rawAccessToken, jwtSecret string) (bool, error) {
	if db == nil || strings.TrimSpace(rawAccessToken) == "" || strings.TrimSpace(jwtSecret) == "" {
		return false, nil
	}
	var n int64
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(1) FROM token_blacklist WHERE token = ? AND expired_at > ?
	`, hmacHex(rawAccessToken, jwtSecret), time.Now().UTC()).Scan(&n).Error
	return n > 0, err
}

func PurgeExpiredBlacklist(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(`DELETE FROM token_blacklist WHERE expired_at <= ?`, now.UTC())
	return res.RowsAffected, res.Error
}
