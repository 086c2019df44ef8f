package util

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads the given env files (".env" when none are given) into the
// process environment. Files that don't exist are skipped, so a deployment
// that only uses real environment variables needs no file at all.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
