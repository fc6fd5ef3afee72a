package utils

import (
	"fmt"
	"os"
)

// CreateFolder creates every given directory, including parents.
func CreateFolder(folderPaths ...string) error {
	for _, folderPath := range folderPaths {
		if folderPath == "" {
			continue
		}
		if err := os.MkdirAll(folderPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", folderPath, err)
		}
	}
	return nil
}
