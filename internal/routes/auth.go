// Operator authentication for the management API.
// Sessions are bearer JWTs; logout revokes the token until its expiry.
package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"barrier-access-control/internal/storage"
	"barrier-access-control/internal/token"
)

const operatorContextKey = "operator"

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		user, err := d.Store.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			if !errors.Is(err, storage.ErrUserNotFound) {
				slog.Error("Failed to look up user", "error", err)
			}
			// Same response for unknown user and bad password
			AbortWithError(c, ErrInvalidCredentials)
			return
		}

		if !user.IsActive {
			slog.Warn("Login attempt for inactive user", "username", user.Username)
			AbortWithError(c, ErrInvalidCredentials)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			slog.Warn("Login attempt with wrong password", "username", user.Username)
			AbortWithError(c, ErrInvalidCredentials)
			return
		}

		tokenString, err := d.Tokens.NewOperatorToken(user)
		if err != nil {
			slog.Error("Failed to generate operator token", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		slog.Info("Operator logged in", "username", user.Username)
		c.JSON(http.StatusOK, gin.H{
			"access_token": tokenString,
			"token_type":   "bearer",
		})
	}
}

func Logout(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetOperator(c)
		if claims != nil {
			d.Tokens.Revoke(claims)
			slog.Info("Operator logged out", "username", claims.Username)
		}
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware requires a valid, unrevoked operator token and stores its
// claims in the request context.
func AuthMiddleware(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := d.Tokens.DecodeOperatorJWT(tokenString)
		if err != nil {
			slog.Warn("Invalid operator token", "error", err)
			if errors.Is(err, token.ErrTokenRevoked) {
				AbortWithError(c, token.ErrTokenRevoked)
			} else {
				AbortWithError(c, token.ErrNonValidToken)
			}
			return
		}

		c.Set(operatorContextKey, claims)
		c.Next()
	}
}

// GetOperator returns the authenticated operator's claims, or nil.
func GetOperator(c *gin.Context) *token.OperatorClaims {
	value, exists := c.Get(operatorContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*token.OperatorClaims)
	if !ok {
		return nil
	}
	return claims
}
