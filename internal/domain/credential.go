package domain

import (
	"sort"
	"strings"
	"time"
)

// Provider identifies which cloud a stored credential belongs to.
type Provider string

const (
	ProviderGCP   Provider = "gcp"
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderK8s   Provider = "k8s"
)

// requiredFields is the fixed validation table per provider. A connect request
// must carry every listed field as a non-empty string before anything is
// encrypted or persisted.
var requiredFields = map[Provider][]string{
	ProviderGCP:   {"type", "project_id", "private_key", "client_email"},
	ProviderAWS:   {"access_key_id", "secret_access_key", "region"},
	ProviderAzure: {"tenant_id", "client_id", "client_secret"},
	ProviderK8s:   {"kubeconfig"},
}

// SupportedProviders returns the known provider tags in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(requiredFields))
	for p := range requiredFields {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// CredentialRecord is the plaintext unit the vault encrypts per connection.
type CredentialRecord struct {
	Provider    Provider          `json:"provider"`
	Credentials map[string]string `json:"credentials"`
}

// NewCredentialRecord validates the provider tag and its required fields and
// returns the record ready for serialization. It returns
// ErrUnsupportedProvider for an unknown tag and a MissingFieldsError listing
// every absent or empty required field.
func NewCredentialRecord(provider string, credentials map[string]string) (*CredentialRecord, error) {
	tag := Provider(strings.ToLower(strings.TrimSpace(provider)))
	required, ok := requiredFields[tag]
	if !ok {
		return nil, ErrUnsupportedProvider
	}

	var missing []string
	for _, field := range required {
		if strings.TrimSpace(credentials[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	return &CredentialRecord{Provider: tag, Credentials: credentials}, nil
}

// EncryptedBlob is the at-rest form of a CredentialRecord. The nonce is not
// secret and is stored next to the ciphertext; the ciphertext carries the
// AEAD authentication tag.
type EncryptedBlob struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// AccessToken is a short-lived upstream bearer token minted by a broker. It is
// never persisted.
type AccessToken struct {
	Bearer    string
	ExpiresAt time.Time
}
