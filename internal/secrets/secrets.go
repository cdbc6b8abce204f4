// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the file name is the key and the trimmed file
// contents are the value.
//
// Known keys: hypothesis-api-token, smtp-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	HypothesisToken = "hypothesis-api-token"
	SMTPPassword    = "smtp-password"
)

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty map. Empty files are ignored.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read secret %s: %w", entry.Name(), err)
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[entry.Name()] = value
		}
	}

	return secrets, nil
}
