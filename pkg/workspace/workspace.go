// Package workspace locates and parses the on-disk envhub credentials, the
// way the CLI records logins. The SDK uses it to pick up the current account
// when no explicit token is configured.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Credentials is the contents of the credentials.json file in the envhub
// home directory.
type Credentials struct {
	// Current names the backend the user last logged in to.
	Current string `json:"current,omitempty"`
	// Accounts maps backend URL to the stored account for it.
	Accounts map[string]Account `json:"accounts,omitempty"`
}

// Account is one stored login.
type Account struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username,omitempty"`
}

// HomeDir returns the envhub home directory: ENVHUB_HOME when set, otherwise
// ".envhub" under the user's home directory.
func HomeDir() (string, error) {
	if dir := os.Getenv("ENVHUB_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".envhub"), nil
}

// BookkeepingDir returns the CLI bookkeeping directory inside the envhub
// home. It may hold its own credentials.json naming the backend to prefer.
func BookkeepingDir() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cli"), nil
}

// CredentialsPath returns the path of the credentials file inside dir.
func CredentialsPath(dir string) string {
	return filepath.Join(dir, "credentials.json")
}

// StoredCredentials reads the credentials file from the envhub home. A
// missing file is not an error; it returns (nil, nil).
func StoredCredentials() (*Credentials, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(CredentialsPath(home))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("could not parse credentials file: %w", err)
	}
	return &creds, nil
}

// currentBackendOverride reads the bookkeeping credentials file, which may
// pin a backend other than the one last logged in to. Missing or malformed
// files yield no override.
func currentBackendOverride() string {
	dir, err := BookkeepingDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(CredentialsPath(dir))
	if err != nil {
		return ""
	}
	var v struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return ""
	}
	return v.Name
}

// CurrentAccount resolves the account to use from the stored credentials,
// returning the account and the backend URL it belongs to. It returns
// (nil, "", nil) when no usable account is stored.
func CurrentAccount() (*Account, string, error) {
	creds, err := StoredCredentials()
	if err != nil {
		return nil, "", err
	}
	if creds == nil {
		return nil, "", nil
	}

	backend := currentBackendOverride()
	if backend == "" {
		backend = creds.Current
	}
	if backend == "" {
		return nil, "", nil
	}
	account, ok := creds.Accounts[backend]
	if !ok {
		return nil, "", nil
	}
	return &account, backend, nil
}
