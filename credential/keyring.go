package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// APIKeyItem is the keyring item that holds the Linear API key
const APIKeyItem = "linear_api_key"

// openKeyring returns a keyring for the given service name
func openKeyring(service string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// LookupAPIKey reads the Linear API key stored under service. A missing item
// yields an empty key and no error.
func LookupAPIKey(service string) (string, error) {
	ring, err := openKeyring(service)
	if err != nil {
		return "", err
	}
	return lookup(ring, APIKeyItem)
}

func lookup(ring keyring.Keyring, key string) (string, error) {
	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}
