package errors

import (
	"strings"
	"unicode"
)

// Validation limits for registry lookups. NuGet itself caps package ids at
// 100 characters; the version cap is conservative headroom over semver 2.0
// build metadata.
const (
	MaxPackageIDLength = 100
	MaxVersionLength   = 64
)

// injectionChars are characters that must never appear in a package id or
// version that is interpolated into a registry URL or rendered report.
const injectionChars = "<>\"'&\x00\r\n"

// ValidatePackageID validates a NuGet package id before it is used in a
// registry lookup.
//
// The validation rules are intentionally conservative:
//   - No empty or blank ids
//   - Maximum length of 100 characters
//   - Must start with a letter
//   - No control characters
//   - No markup/injection characters (< > " ' &)
func ValidatePackageID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidPackage, "package id cannot be blank")
	}

	if len(id) > MaxPackageIDLength {
		return New(ErrCodeInvalidPackage, "package id too long (max %d characters)", MaxPackageIDLength)
	}

	first := rune(id[0])
	if !unicode.IsLetter(first) {
		return New(ErrCodeInvalidPackage, "package id must start with a letter: %q", id)
	}

	if err := checkUnsafe(id); err != nil {
		return New(ErrCodeInvalidPackage, "package id %v", err)
	}

	return nil
}

// ValidatePackageVersion validates a package version string before it is used
// in a registry lookup.
func ValidatePackageVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		return New(ErrCodeInvalidVersion, "package version cannot be blank")
	}

	if len(version) > MaxVersionLength {
		return New(ErrCodeInvalidVersion, "package version too long (max %d characters)", MaxVersionLength)
	}

	if err := checkUnsafe(version); err != nil {
		return New(ErrCodeInvalidVersion, "package version %v", err)
	}

	return nil
}

// checkUnsafe rejects control characters and injection characters.
// The returned error is a bare description to be wrapped by the caller.
func checkUnsafe(s string) error {
	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "contains control characters")
		}
		if strings.ContainsRune(injectionChars, r) {
			return New(ErrCodeInvalidInput, "contains invalid character %q", r)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
