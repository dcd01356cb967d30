package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/allisson/colkeys/internal/errors"
)

// vaultHostSuffix is the public cloud Key Vault DNS suffix.
const vaultHostSuffix = ".vault.azure.net"

// KeyPath identifies one version of a key inside a vault.
//
// Example: https://my-vault.vault.azure.net/keys/cmk/0123456789abcdef
type KeyPath struct {
	VaultURL string // https://my-vault.vault.azure.net
	Name     string
	Version  string // empty means the latest version
}

// String renders the key path in the form stored in KEY_PATH.
func (k KeyPath) String() string {
	if k.Version == "" {
		return fmt.Sprintf("%s/keys/%s", k.VaultURL, k.Name)
	}
	return fmt.Sprintf("%s/keys/%s/%s", k.VaultURL, k.Name, k.Version)
}

// BuildKeyPath assembles the key path for a vault name, key name and version.
func BuildKeyPath(vaultName, keyName, keyVersion string) KeyPath {
	return KeyPath{
		VaultURL: "https://" + vaultName + vaultHostSuffix,
		Name:     keyName,
		Version:  keyVersion,
	}
}

// ParseKeyPath parses https://<vault-host>/keys/<name>[/<version>].
func ParseKeyPath(raw string) (KeyPath, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return KeyPath{}, errors.Wrapf(ErrInvalidKeyPath, "%q", raw)
	}
	if u.Scheme != "https" || u.Host == "" {
		return KeyPath{}, errors.Wrapf(ErrInvalidKeyPath, "%q: expected https://<vault>/keys/<name>", raw)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || len(segments) > 3 || segments[0] != "keys" || segments[1] == "" {
		return KeyPath{}, errors.Wrapf(ErrInvalidKeyPath, "%q: expected /keys/<name>[/<version>]", raw)
	}

	path := KeyPath{
		VaultURL: u.Scheme + "://" + u.Host,
		Name:     segments[1],
	}
	if len(segments) == 3 {
		path.Version = segments[2]
	}
	return path, nil
}
