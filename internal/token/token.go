// Package token issues and verifies the JWT credentials used by operators
// (management API) and devices (websocket channel).
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"barrier-access-control/internal/storage"
)

var (
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

var tokenSignatureAlg = jwt.SigningMethodHS256

// OperatorClaims is the claim set of a management API session token.
type OperatorClaims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// DeviceClaims is the claim set of a device credential presented once at
// websocket connect time.
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret      []byte
	operatorTTL time.Duration
	deviceTTL   time.Duration
	blacklist   *Blacklist
}

func NewManager(secret string, operatorTTL time.Duration, deviceTTL time.Duration) *Manager {
	return &Manager{
		secret:      []byte(secret),
		operatorTTL: operatorTTL,
		deviceTTL:   deviceTTL,
		blacklist:   NewBlacklist(),
	}
}

func (m *Manager) Close() {
	m.blacklist.Close()
}

func newRegisteredClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *Manager) NewOperatorToken(user *storage.User) (string, error) {
	claims := OperatorClaims{
		Username:         user.Username,
		IsAdmin:          user.IsAdmin,
		RegisteredClaims: newRegisteredClaims(m.operatorTTL),
	}
	return m.generateJWT(claims)
}

func (m *Manager) NewDeviceToken(deviceID string) (string, error) {
	claims := DeviceClaims{
		DeviceID:         deviceID,
		RegisteredClaims: newRegisteredClaims(m.deviceTTL),
	}
	return m.generateJWT(claims)
}

// DecodeOperatorJWT verifies an operator token, including the revocation check.
func (m *Manager) DecodeOperatorJWT(tokenString string) (*OperatorClaims, error) {
	claims, err := decodeJWT(m.secret, tokenString, &OperatorClaims{})
	if err != nil {
		return nil, err
	}
	if m.blacklist.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (m *Manager) DecodeDeviceJWT(tokenString string) (*DeviceClaims, error) {
	return decodeJWT(m.secret, tokenString, &DeviceClaims{})
}

// Revoke invalidates an operator token until its natural expiry.
func (m *Manager) Revoke(claims *OperatorClaims) {
	expiry := time.Now().UTC().Add(m.operatorTTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	m.blacklist.Revoke(claims.ID, expiry)
}

func (m *Manager) generateJWT(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(tokenSignatureAlg, claims)
	return token.SignedString(m.secret)
}

func decodeJWT[T jwt.Claims](secret []byte, tokenString string, claimsType T) (T, error) {
	var zero T

	parsedToken, err := jwt.ParseWithClaims(tokenString, claimsType, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}))

	if err != nil {
		return zero, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return zero, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(T); ok {
		return claims, nil
	}

	return zero, ErrInvalidClaimType
}
