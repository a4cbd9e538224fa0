package validation

import (
	"net"
	"net/url"
	"strings"
)

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// ValidatePublicURL checks a URL with ValidateURL and additionally rejects
// hosts that are literal private addresses or localhost. No DNS lookups are
// made; names that resolve to private ranges are not detected.
func ValidatePublicURL(urlStr string) (bool, string) {
	valid, msg := ValidateURL(urlStr)
	if !valid {
		return false, msg
	}

	u, _ := url.Parse(urlStr)
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false, "URL points to a private or reserved address"
	}
	if IsPrivateIP(net.ParseIP(host)) {
		return false, "URL points to a private or reserved address"
	}

	return true, ""
}

// IsPrivateIP checks if an IP address is in a private/reserved range.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}

	// Cloud metadata endpoints (AWS/GCP, Azure)
	for _, metadata := range []string{"169.254.169.254", "168.63.129.16"} {
		if ip.Equal(net.ParseIP(metadata)) {
			return true
		}
	}

	return false
}
