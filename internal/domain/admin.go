package domain

// AdminMarker is a trust record stored under the id of the account it elevates.
type AdminMarker struct {
	Key    string
	Fields map[string]any
}

const adminMarkerUserIDField = "userId"

// IsAdmin reports whether marker grants admin capability to candidate.
// The record must exist, be keyed by candidate, carry a string userId equal to candidate,
// and hold no other fields.
func IsAdmin(candidate AccountID, marker AdminMarker, found bool) bool {
	if !found || candidate == "" {
		return false
	}
	if marker.Key != string(candidate) {
		return false
	}
	uid, ok := marker.Fields[adminMarkerUserIDField].(string)
	if !ok || uid != string(candidate) || uid != marker.Key {
		return false
	}
	return len(marker.Fields) == 1
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAccount Role = "account"
)
