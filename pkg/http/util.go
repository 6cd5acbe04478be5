package http

import (
	"fmt"
	"net/url"
)

// BuildURL replaces the path of baseURL and sets rawQuery verbatim.
// rawQuery is not encoded so that bare flags like "WSDL" survive.
func BuildURL(baseURL, path, rawQuery string) (string, error) {
	// Parse the base URL
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("error parsing base URL: %q has no scheme or host", baseURL)
	}

	if path != "" {
		parsedURL.Path = path
	}
	parsedURL.RawQuery = rawQuery

	// Return the full URL as a string
	return parsedURL.String(), nil
}
