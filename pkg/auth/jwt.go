package auth

import (
	"time"

	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"

	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both access and refresh tokens. Role and full name
// ride inside the token so the API layer can build an Actor without a
// user lookup on every request.
type Claims struct {
	Role      string `json:"role"`
	FullName  string `json:"full_name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair signs a fresh access/refresh pair for the given user.
func (tm *TokenManager) IssuePair(user *model.User) (*model.TokenPair, error) {
	access, err := tm.sign(user, TokenTypeAccess, tm.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := tm.sign(user, TokenTypeRefresh, tm.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{
		Access:   access,
		Refresh:  refresh,
		Role:     user.Role,
		FullName: user.FullName,
	}, nil
}

func (tm *TokenManager) sign(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:      user.Role,
		FullName:  user.FullName,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// VerifyAccess parses an access token and returns the acting identity.
func (tm *TokenManager) VerifyAccess(token string) (model.Actor, error) {
	return tm.verify(token, TokenTypeAccess)
}

// VerifyRefresh parses a refresh token and returns the acting identity.
func (tm *TokenManager) VerifyRefresh(token string) (model.Actor, error) {
	return tm.verify(token, TokenTypeRefresh)
}

func (tm *TokenManager) verify(token, wantType string) (model.Actor, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Unauthorized("Unexpected token signing method")
		}
		return tm.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.Actor{}, apperrors.Unauthorized("Invalid or expired token")
	}
	if claims.TokenType != wantType {
		return model.Actor{}, apperrors.Unauthorized("Wrong token type")
	}
	return model.Actor{
		ID:       claims.Subject,
		Role:     claims.Role,
		FullName: claims.FullName,
	}, nil
}
