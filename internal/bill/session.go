package bill

import (
	"encoding/json"
	"errors"
	"fmt"
)

// UserKey is the session item holding the connected user
const UserKey = "user"

// Session is a key/value store holding the connected user
type Session interface {
	GetItem(key string) string
}

// User is the connected user as stored in the session
type User struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// CurrentUser decodes the user item of a session
func CurrentUser(s Session) (User, error) {
	var u User
	if s == nil {
		return u, errors.New("no session")
	}
	raw := s.GetItem(UserKey)
	if raw == "" {
		return u, errors.New("no user in session")
	}
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return u, fmt.Errorf("decoding session user: %w", err)
	}
	return u, nil
}
