package httpapi

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"comanda/backend/internal/domain"
)

// AuthManager signs short-lived role tokens once a terminal has been
// unlocked with a PIN.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Role domain.Role `json:"role"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	Role        domain.Role `json:"role"`
	ExpiresAt   string      `json:"expires_at"`
}

func NewAuthManager(secret string, tokenTTL time.Duration) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a token for an operator who has already unlocked role.
func (a *AuthManager) Issue(subject string, role domain.Role) (TokenResponse, error) {
	if !role.Valid() {
		return TokenResponse{}, errors.New("role is not unlockable")
	}
	if subject == "" {
		subject = "terminal"
	}
	expiresAt := a.now().Add(a.tokenTTL)
	token, err := a.sign(subject, role, expiresAt)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: token,
		Role:        role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	if !claims.Role.Valid() {
		return domain.Actor{}, errors.New("invalid token role")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(subject string, role domain.Role, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(a.now()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "comanda",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
