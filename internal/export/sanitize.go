package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

var ErrInvalidOutputDir = errors.New("invalid output directory")

const namePunct = " -_.,()"

// SanitizeName makes s safe for an EDL clip comment and a file name. Control
// characters are dropped, unsupported symbols become '_' and the result is
// cut to maxLen runes when maxLen is positive.
func SanitizeName(s string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune(namePunct, r):
			return r
		}
		return '_'
	}, s))

	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			return string(runes[:maxLen])
		}
	}
	return cleaned
}

// ValidateOutputDir accepts an existing directory written as a clean path
// with no ".." element.
func ValidateOutputDir(dir string) error {
	switch {
	case strings.TrimSpace(dir) == "":
		return invalidDir("path is required")
	case slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), ".."):
		return invalidDir("path traversal")
	case filepath.Clean(dir) != dir:
		return invalidDir("path must be clean")
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return invalidDir(dir + " does not exist")
	case err != nil:
		return invalidDir(err.Error())
	case !info.IsDir():
		return invalidDir(dir + " is not a directory")
	}
	return nil
}

func invalidDir(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOutputDir, reason)
}
