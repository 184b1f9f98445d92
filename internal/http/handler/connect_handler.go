package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FabioDiCeglie/Trim-AI/internal/domain"
	"github.com/FabioDiCeglie/Trim-AI/internal/http/middleware"
	"github.com/FabioDiCeglie/Trim-AI/internal/vault"
)

// TokenBroker mints a short-lived upstream access token from stored
// credentials.
type TokenBroker interface {
	AccessToken(ctx context.Context, record *domain.CredentialRecord) (*domain.AccessToken, error)
}

// ConnectHandler exposes the credential vault over HTTP.
type ConnectHandler struct {
	Vault  *vault.Vault
	Broker TokenBroker
}

func NewConnectHandler(v *vault.Vault, b TokenBroker) *ConnectHandler {
	return &ConnectHandler{Vault: v, Broker: b}
}

// Connect validates and stores provider credentials, answering with the
// opaque connection token the browser holds from then on. Raw credentials
// are never echoed back or logged.
func (h *ConnectHandler) Connect(c *gin.Context) {
	var req struct {
		Provider    string            `json:"provider"`
		Credentials map[string]string `json:"credentials"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if len(req.Credentials) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'credentials' object"})
		return
	}

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	token, err := h.Vault.Connect(c.Request.Context(), provider, req.Credentials)
	if err != nil {
		h.respondConnectError(c, provider, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"connectionId": token, "provider": provider})
}

// Connection reports which provider the resolved session belongs to. For
// providers that require a token exchange it also mints a fresh upstream
// token to prove the stored credentials still work; the bearer value itself
// never leaves the server.
func (h *ConnectHandler) Connection(c *gin.Context) {
	record, ok := middleware.GetCredentialRecord(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return
	}

	resp := gin.H{"provider": record.Provider}
	if record.Provider == domain.ProviderGCP {
		token, err := h.Broker.AccessToken(c.Request.Context(), record)
		if err != nil {
			h.respondBrokerError(c, err)
			return
		}
		resp["credentialsVerified"] = true
		resp["tokenExpiresAt"] = token.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConnectHandler) respondBrokerError(c *gin.Context, err error) {
	var exchange *domain.TokenExchangeError
	switch {
	case errors.Is(err, domain.ErrKeyImport):
		// Unusable key material reads the same as any other failed
		// authentication; the PEM details stay in the server log.
		zap.L().Warn("stored key material unusable", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
	case errors.Is(err, domain.ErrUpstreamTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Provider token endpoint timed out"})
	case errors.As(err, &exchange):
		c.JSON(http.StatusBadGateway, gin.H{"error": exchange.Description})
	default:
		zap.L().Error("token exchange failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Provider token endpoint unreachable"})
	}
}

// Health is the unauthenticated liveness probe.
func (h *ConnectHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ConnectHandler) respondConnectError(c *gin.Context, provider string, err error) {
	var missing *domain.MissingFieldsError
	switch {
	case errors.Is(err, domain.ErrUnsupportedProvider):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Unsupported provider '%s'. Must be one of: %s",
				provider, strings.Join(domain.SupportedProviders(), ", ")),
		})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing credential fields: " + strings.Join(missing.Fields, ", "),
		})
	case errors.Is(err, domain.ErrUpstreamTimeout):
		zap.L().Error("connection store timed out", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Connection store timed out"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		zap.L().Error("connection store unavailable", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Connection store unavailable"})
	default:
		zap.L().Error("connect failed", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
