// Package detector classifies visitors from request metadata: device,
// browser and operating system from the user agent, plus the real client
// IP behind proxies.
package detector

import "strings"

// Device/browser/OS values recorded against clicks. Matching is by
// case-insensitive substring; order matters where patterns overlap
// (an iPad UA must hit the tablet patterns before desktop's macintosh).
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
	Unknown       = "Unknown"
)

var crawlerKeywords = []string{"bot", "crawler", "spider", "facebook", "twitter", "linkedin", "slack"}

func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case containsAny(ua, "mobile", "android", "iphone", "ipod"):
		return DeviceMobile
	case containsAny(ua, "tablet", "ipad"):
		return DeviceTablet
	case containsAny(ua, "windows", "macintosh", "linux"):
		return DeviceDesktop
	}
	return Unknown
}

func Browser(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	case strings.Contains(ua, "edge"):
		return "Edge"
	case containsAny(ua, "opera", "opr"):
		return "Opera"
	case containsAny(ua, "msie", "trident"):
		return "Internet Explorer"
	}
	return Unknown
}

func OS(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case containsAny(ua, "macintosh", "mac os"):
		return "MacOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	case strings.Contains(ua, "android"):
		return "Android"
	case containsAny(ua, "iphone", "ipad", "ipod"):
		return "iOS"
	}
	return Unknown
}

// IsCrawler reports whether the user agent looks like a bot or a social
// media link preview fetcher.
func IsCrawler(userAgent string) bool {
	return containsAny(strings.ToLower(userAgent), crawlerKeywords...)
}

// ClientIP resolves the originating address, preferring the first entry
// of X-Forwarded-For, then X-Real-IP, then the connection address.
func ClientIP(remoteAddr, xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xRealIP != "" {
		return xRealIP
	}

	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}

	return remoteAddr
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
