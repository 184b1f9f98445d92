package broker

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"go.uber.org/zap"

	"github.com/FabioDiCeglie/Trim-AI/internal/config"
	"github.com/FabioDiCeglie/Trim-AI/internal/domain"
)

const (
	jwtBearerGrant     = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	assertionLifetime  = time.Hour
)

// GCPBroker exchanges a stored service-account key for a short-lived GCP
// access token via the OAuth2 JWT-bearer flow. Every call mints a fresh
// token; nothing is cached and nothing is retried.
type GCPBroker struct {
	tokenURL string
	client   *http.Client
	logger   *zap.Logger
}

func NewGCPBroker(cfg config.Config, logger *zap.Logger) *GCPBroker {
	return &GCPBroker{
		tokenURL: cfg.GCPTokenURL,
		client:   &http.Client{Timeout: cfg.UpstreamTimeout},
		logger:   logger,
	}
}

// AccessToken builds and signs the JWT assertion from the record's
// client_email and private_key fields, then exchanges it at the token
// endpoint. Key material problems surface as domain.ErrKeyImport before any
// network call; an error-shaped endpoint response becomes a
// domain.TokenExchangeError carrying the upstream description.
func (b *GCPBroker) AccessToken(ctx context.Context, record *domain.CredentialRecord) (*domain.AccessToken, error) {
	assertion, err := b.buildAssertion(record)
	if err != nil {
		return nil, err
	}
	return b.exchange(ctx, assertion)
}

func (b *GCPBroker) buildAssertion(record *domain.CredentialRecord) (string, error) {
	clientEmail := record.Credentials["client_email"]
	key, err := parsePrivateKey(record.Credentials["private_key"])
	if err != nil {
		return "", err
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrKeyImport, err)
	}

	now := time.Now()
	claims := jwt.Claims{
		Issuer:   clientEmail,
		Subject:  clientEmail,
		Audience: jwt.Audience{b.tokenURL},
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(assertionLifetime)),
	}
	scoped := struct {
		Scope string `json:"scope"`
	}{Scope: cloudPlatformScope}

	assertion, err := jwt.Signed(signer).Claims(claims).Claims(scoped).Serialize()
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return assertion, nil
}

func (b *GCPBroker) exchange(ctx context.Context, assertion string) (*domain.AccessToken, error) {
	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	var payload struct {
		AccessToken      string `json:"access_token"`
		ExpiresIn        int64  `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &domain.TokenExchangeError{Description: fmt.Sprintf("unparseable response (status %d)", resp.StatusCode)}
	}

	if payload.AccessToken == "" {
		desc := payload.ErrorDescription
		if desc == "" {
			desc = payload.Error
		}
		if desc == "" {
			desc = fmt.Sprintf("no access token in response (status %d)", resp.StatusCode)
		}
		b.logger.Warn("gcp token exchange rejected", zap.Int("status", resp.StatusCode), zap.String("upstream_error", payload.Error))
		return nil, &domain.TokenExchangeError{Description: desc}
	}

	// A response without expires_in yields an already-expired ExpiresAt:
	// the bearer still serves the current request chain, but any caller-side
	// cache must treat it as unusable for reuse.
	expiresAt := time.Now()
	if payload.ExpiresIn > 0 {
		expiresAt = expiresAt.Add(time.Duration(payload.ExpiresIn) * time.Second)
	}

	return &domain.AccessToken{
		Bearer:    payload.AccessToken,
		ExpiresAt: expiresAt,
	}, nil
}

// parsePrivateKey accepts PKCS#8 or PKCS#1 PEM blocks and requires an RSA
// key, matching what GCP issues for service accounts.
func parsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", domain.ErrKeyImport)
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", domain.ErrKeyImport)
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyImport, err)
	}
	return key, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
