package kv

import "strings"

// Global collection keys.
const (
	KeyCustomers       = "customers"
	KeyUsers           = "users"
	KeyGroups          = "groups"
	KeyDeviceSessions  = "device_sessions"
	KeyCredentials     = "credentials"
	KeyProfiles        = "psychologicalProfiles"
	KeyCustomerAnswers = "customerFormData"
)

// Per-entity document prefixes.
const (
	PrefixSummary      = "customerSummary"
	PrefixManagerNotes = "managerNotes"
)

// EntityKey returns the per-entity document key "<prefix>_<id>".
func EntityKey(prefix, id string) string { return prefix + "_" + id }

// SummaryKey is the key of a customer's summary document.
func SummaryKey(customerID string) string { return EntityKey(PrefixSummary, customerID) }

// NotesKey is the key of a customer's manager notes list.
func NotesKey(customerID string) string { return EntityKey(PrefixManagerNotes, customerID) }

// EntityID extracts the id from a per-entity key, reporting whether key carries prefix.
func EntityID(prefix, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, prefix+"_")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}
