package connection

import "errors"

var (
	ErrAlreadyExists = errors.New("connection already exists")
	ErrNotFound      = errors.New("connection not found")
)

// Identity is resolved once at connect time and is immutable for the
// lifetime of the connection. A reconnect gets a fresh identity unless the
// client supplies a persisted user id.
type Identity struct {
	UserId   string `json:"user_id"`
	Username string `json:"username"`
}
