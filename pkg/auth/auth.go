// Package auth issues and verifies the credentials the HTTP layer runs on.
// Two verifier implementations exist: an HS256 JWT verifier for
// password-based logins, and a Google ID token verifier for deployments that
// delegate sign-in to Google. Both resolve a bearer token to a uid; profile
// and role lookups stay in the server layer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// Verifier resolves a bearer token to the uid it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWT signs and verifies HS256 access tokens.
type JWT struct {
	secret []byte
	ttl    time.Duration
}

// NewJWT builds a JWT signer/verifier. ttl bounds how long issued tokens
// stay valid.
func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl}
}

// SignAccessToken issues an access token for the uid.
func (j *JWT) SignAccessToken(uid string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uid,
		"exp":  now.Add(j.ttl).Unix(),
		"iat":  now.Unix(),
		"type": "access",
	})
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the subject uid.
// Every failure maps to ErrUnauthenticated; callers never learn which check
// failed.
func (j *JWT) Verify(_ context.Context, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid or expired token", model.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid token claims", model.ErrUnauthenticated)
	}
	uid, ok := claims["sub"].(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("%w: token carries no subject", model.ErrUnauthenticated)
	}
	return uid, nil
}

// GoogleVerifier validates Google ID tokens against an OAuth client ID. The
// token subject becomes the profile document ID.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier builds a verifier bound to one OAuth client ID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify validates the ID token and returns its subject.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (string, error) {
	payload, err := idtoken.Validate(ctx, token, g.clientID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", model.ErrUnauthenticated, err.Error())
	}
	return payload.Subject, nil
}

// LoginStore defines the profile lookup behind password logins.
type LoginStore interface {
	GetUserByEmployeeCode(ctx context.Context, code string) (*model.UserProfile, error)
}

// Login checks an employee code and password and issues an access token.
// Unknown codes, bad passwords, and deactivated accounts all read as the same
// authentication failure.
func Login(ctx context.Context, store LoginStore, signer *JWT, employeeCode, password string) (string, *model.UserProfile, error) {
	profile, err := store.GetUserByEmployeeCode(ctx, employeeCode)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: bad credentials", model.ErrUnauthenticated)
		}
		return "", nil, fmt.Errorf("login lookup for %s: %w", employeeCode, err)
	}
	if !profile.IsActive {
		return "", nil, fmt.Errorf("%w: bad credentials", model.ErrUnauthenticated)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: bad credentials", model.ErrUnauthenticated)
	}

	token, err := signer.SignAccessToken(profile.UID)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

// HashPassword produces the bcrypt hash stored on a profile.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
