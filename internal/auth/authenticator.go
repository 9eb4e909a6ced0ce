package auth

import (
	"context"

	"carz-auction/internal/models"
)

//go:generate mockgen -source=authenticator.go -destination=mock_auth.go -package=auth

// Authenticator is the user-store collaborator behind registration and login.
type Authenticator interface {
	// Register creates a user and returns it. Fails with DuplicateEmail if the email is taken.
	Register(ctx context.Context, name, email, password string) (models.User, error)

	// Authenticate returns the user matching email and password, or InvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

// UserStorage is the slice of the auction store the authenticator needs.
type UserStorage interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}
