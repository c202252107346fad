package auth

import "strings"

// Identity says whose cart a request operates on. DeviceID is always set;
// UserID is set only when a valid bearer token was presented.
type Identity struct {
	UserID   string
	DeviceID string
}

// Anonymous scopes a request to a device only.
func Anonymous(deviceID string) Identity {
	return Identity{DeviceID: strings.TrimSpace(deviceID)}
}

// Authenticated scopes a request to a user, remembering the device so its
// local cart can be merged.
func Authenticated(userID, deviceID string) Identity {
	return Identity{UserID: strings.TrimSpace(userID), DeviceID: strings.TrimSpace(deviceID)}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// Key is a stable per-caller key for rate limiting and locks.
func (i Identity) Key() string {
	if i.IsAuthenticated() {
		return "user:" + i.UserID
	}
	return "device:" + i.DeviceID
}
