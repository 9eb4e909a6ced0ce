package storefront

import (
	"strings"

	"carz-auction/internal/models"

	"github.com/google/uuid"
)

// Session is the logged-in user. An offline session was created locally because the auction
// service could not be reached; its user ID is unknown to the server.
type Session struct {
	User    models.User
	Offline bool
}

// offlineSession builds a local-only session. Without a name the local part of the email is used.
func offlineSession(name, email string) Session {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return Session{
		User: models.User{
			UserID:      "offline-" + uuid.NewString(),
			Email:       email,
			DisplayName: name,
		},
		Offline: true,
	}
}
