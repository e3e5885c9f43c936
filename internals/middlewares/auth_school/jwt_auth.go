package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	helperAuth "colegio_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(ctx context.Context, rawToken string) (bool, error) // true if revoked
	AllowCookieFallback bool                                                     // use the access_token cookie when there is no Bearer header
}

// BlacklistFromDB checks token_blacklist.
func BlacklistFromDB(db *gorm.DB, secret string) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, raw string) (bool, error) {
		return helperAuth.IsBlacklisted(ctx, db, raw, secret)
	}
}

func bearerToken(c *fiber.Ctx, cookieFallback bool) string {
	if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.Trim(strings.TrimSpace(authz[7:]), "\"'")
	}
	if cookieFallback {
		return strings.TrimSpace(c.Cookies("access_token"))
	}
	return ""
}

// AuthJWT verifies an HS256 access token and fills the helperAuth locals.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c, o.AllowCookieFallback)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
		}

		if o.BlacklistChecker != nil {
			black, err := o.BlacklistChecker(c.UserContext(), raw)
			if err != nil {
				log.Printf("[AUTH] blacklist check failed: %v", err)
			} else if black {
				return fiber.NewError(fiber.StatusUnauthorized, "token revoked")
			}
		}

		uid := strClaim(claims, "id")
		if uid == "" {
			uid = strClaim(claims, "sub")
		}
		if uid == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user id missing in token")
		}

		c.Locals(helperAuth.LocUserID, uid)
		c.Locals(helperAuth.LocRolesGlobal, helperAuth.ReadStringSlice(claims["roles_global"]))
		c.Locals(helperAuth.LocSchoolRoles, helperAuth.ParseSchoolRoles(claims["school_roles"]))
		c.Locals(helperAuth.LocRawToken, raw)
		if exp, ok := claims["exp"].(float64); ok {
			c.Locals(helperAuth.LocTokenExp, time.Unix(int64(exp), 0))
		}
		return c.Next()
	}
}

func strClaim(m jwt.MapClaims, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
