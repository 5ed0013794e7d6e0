// Package session tracks the devices an account is logged in from and caps how many
// distinct devices may hold a session at once.
package session

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Signals are the client-reported attributes a device fingerprint is derived from.
type Signals struct {
	UserAgent string `json:"userAgent"`
	Language  string `json:"language"`
	Screen    string `json:"screen"`
	Timezone  string `json:"timezone"`
	Canvas    string `json:"canvas"`
}

// Fingerprint hashes the signals into a short stable identifier. It is a convenience
// identifier, not a security token: any client can report any signals.
func Fingerprint(s Signals) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join([]string{s.UserAgent, s.Language, s.Screen, s.Timezone, s.Canvas}, "|")))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

// Device is the human readable description of a user agent.
type Device struct {
	Info    string
	Browser string
	OS      string
}

// DescribeDevice extracts browser, OS and form factor from a user agent string.
func DescribeDevice(userAgent string) Device {
	ua := userAgent
	browser := "Unknown"
	switch {
	case strings.Contains(ua, "Edg/"):
		browser = "Edge"
	case strings.Contains(ua, "OPR/") || strings.Contains(ua, "Opera"):
		browser = "Opera"
	case strings.Contains(ua, "Chrome/"):
		browser = "Chrome"
	case strings.Contains(ua, "Firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "Safari/"):
		browser = "Safari"
	}

	os := "Unknown"
	switch {
	case strings.Contains(ua, "Windows"):
		os = "Windows"
	case strings.Contains(ua, "Android"):
		os = "Android"
	case strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad") || strings.Contains(ua, "iOS"):
		os = "iOS"
	case strings.Contains(ua, "Mac OS") || strings.Contains(ua, "Macintosh"):
		os = "macOS"
	case strings.Contains(ua, "Linux"):
		os = "Linux"
	}

	form := "Desktop"
	if strings.Contains(ua, "Mobile") || os == "Android" || os == "iOS" {
		form = "Mobile"
	}
	return Device{Info: browser + " on " + os + " (" + form + ")", Browser: browser, OS: os}
}
