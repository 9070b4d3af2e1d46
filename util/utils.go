package util

import (
	"os"
	"path/filepath"
)

// AbsolutePath resolves a path relative to the current working directory.
// Absolute paths are returned unchanged.
func AbsolutePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, path), nil
}

func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}

// StringValue returns the pointed-to string, or "" for nil.
func StringValue(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

// StringPtrOrNil returns nil for the empty string so optional FHIR elements
// are omitted instead of serialised as "".
func StringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
