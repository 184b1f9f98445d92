package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FabioDiCeglie/Trim-AI/internal/domain"
	"github.com/FabioDiCeglie/Trim-AI/internal/vault"
)

const credentialRecordKey = "credentialRecord"

// unauthorizedMessage is deliberately generic: unknown, expired, and
// tampered tokens all produce the identical response.
const unauthorizedMessage = "Missing or invalid Authorization header"

// Auth resolves the bearer connection token into decrypted provider
// credentials and attaches them to the request context.
type Auth struct {
	Vault *vault.Vault
}

// ResolveConnection ensures the request carries a resolvable connection token.
func (m *Auth) ResolveConnection(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": unauthorizedMessage})
		return
	}

	record, err := m.Vault.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		zap.L().Error("connection resolve failed", zap.Error(err))
		message := "Connection store unavailable"
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			message = "Connection store timed out"
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": message})
		return
	}
	if record == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": unauthorizedMessage})
		return
	}

	c.Set(credentialRecordKey, record)
	c.Next()
}

// GetCredentialRecord exposes the resolved credentials to handlers.
func GetCredentialRecord(c *gin.Context) (*domain.CredentialRecord, bool) {
	value, ok := c.Get(credentialRecordKey)
	if !ok {
		return nil, false
	}
	record, ok := value.(*domain.CredentialRecord)
	return record, ok
}
