package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// ValidateLocator checks that a content locator is an absolute http(s) URL
func ValidateLocator(raw string) (string, error) {
	locator := strings.TrimSpace(raw)
	if locator == "" {
		return "", fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("invalid url format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("url must use http or https")
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url must include a host")
	}

	return locator, nil
}

// IsYouTubeURL reports whether a locator points at a YouTube video
func IsYouTubeURL(locator string) bool {
	parsed, err := url.Parse(strings.TrimSpace(locator))
	if err != nil {
		return false
	}
	return youtubeHosts[strings.ToLower(parsed.Hostname())]
}

// ValidateAndParseUUID validates and parses UUID from string
func ValidateAndParseUUID(idStr string, fieldName string) (uuid.UUID, error) {
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s cannot be empty", fieldName)
	}

	// Ensure UUID has proper format with hyphens
	if len(idStr) != 36 || strings.Count(idStr, "-") != 4 {
		return uuid.Nil, fmt.Errorf("invalid %s format", fieldName)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s format: %w", fieldName, err)
	}

	return id, nil
}
