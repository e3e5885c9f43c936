package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"colegio_backend/internals/features/users/auth/model"
	helperAuth "colegio_backend/internals/helpers/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account is disabled")
	ErrGoogleDisabled     = errors.New("google login is not configured")
	ErrInvalidGoogleToken = errors.New("invalid google id token")
)

type Service struct {
	DB             *gorm.DB
	Secret         string
	AccessTTL      time.Duration
	GoogleClientID string
}

type TokenResult struct {
	AccessToken string                        `json:"access_token"`
	ExpiresAt   time.Time                     `json:"expires_at"`
	User        model.User                    `json:"user"`
	SchoolRoles []helperAuth.SchoolRolesEntry `json:"school_roles"`
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *Service) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	var u model.User
	err := s.DB.WithContext(ctx).Where("email = ?", normEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Password == nil || bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

// LoginGoogle verifies the ID token and links it to the account with the
// same e-mail, creating one without school roles if none exists.
func (s *Service) LoginGoogle(ctx context.Context, idToken string) (*TokenResult, error) {
	if s.GoogleClientID == "" {
		return nil, ErrGoogleDisabled
	}
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{s.GoogleClientID}); err != nil {
		return nil, ErrInvalidGoogleToken
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}
	email, name, googleID := normEmail(claimSet.Email), claimSet.Name, claimSet.Sub

	var u model.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", googleID).First(&u).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = tx.Where("email = ?", email).First(&u).Error
		switch {
		case err == nil:
			u.GoogleID = &googleID
			return tx.Model(&u).Update("google_id", googleID).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = model.User{Email: email, FullName: name, GoogleID: &googleID, IsActive: true}
			return tx.Create(&u).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("google login: %w", err)
	}
	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u model.User) (*TokenResult, error) {
	if !u.IsActive {
		return nil, ErrInactive
	}
	roles, err := s.SchoolRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	token, exp, err := helperAuth.IssueAccessToken(u.ID, u.Email, nil, roles, s.Secret, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenResult{AccessToken: token, ExpiresAt: exp, User: u, SchoolRoles: roles}, nil
}

// SchoolRoles groups the user's grants per school.
func (s *Service) SchoolRoles(ctx context.Context, userID uuid.UUID) ([]helperAuth.SchoolRolesEntry, error) {
	var rows []model.UserSchoolRole
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("school_id, role").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]helperAuth.SchoolRolesEntry, 0)
	idx := map[uuid.UUID]int{}
	for _, r := range rows {
		i, ok := idx[r.SchoolID]
		if !ok {
			i = len(out)
			idx[r.SchoolID] = i
			out = append(out, helperAuth.SchoolRolesEntry{SchoolID: r.SchoolID})
		}
		out[i].Roles = append(out[i].Roles, r.Role)
	}
	return out, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string, exp time.Time) error {
	return helperAuth.AddToBlacklist(ctx, s.DB, rawToken, s.Secret, exp)
}

// Me returns the account behind a token.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var u model.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
