package helper

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// IssueAccessToken signs an HS256 token carrying the user id and its roles per school.
func IssueAccessToken(userID uuid.UUID, email string, rolesGlobal []string, schoolRoles []SchoolRolesEntry, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)

	sr := make([]map[string]any, 0, len(schoolRoles))
	for _, e := range schoolRoles {
		sr = append(sr, map[string]any{
			"school_id": e.SchoolID.String(),
			"roles":     e.Roles,
		})
	}
	if rolesGlobal == nil {
		rolesGlobal = []string{}
	}

	claims := jwt.MapClaims{
		"id":           userID.String(),
		"email":        email,
		"roles_global": rolesGlobal,
		"school_roles": sr,
		"iat":          now.Unix(),
		"exp":          exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
