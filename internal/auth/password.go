package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/utils"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// PasswordAuthenticator implements Authenticator with bcrypt password hashes.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

// NewPasswordAuthenticator creates a password authenticator. Costs outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func NewPasswordAuthenticator(storage UserStorage, cost int) *PasswordAuthenticator {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordAuthenticator{storage: storage, cost: cost}
}

// ValidatePassword checks the password meets the minimum requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return biddingerrors.Reject(biddingerrors.ErrValidation,
			"password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return models.User{}, fmt.Errorf("register: %w - name and email are required", biddingerrors.ErrInvalidUser)
	}
	if err := ValidatePassword(password); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return models.User{}, biddingerrors.Reject(biddingerrors.ErrValidation, "password must be at most 72 bytes")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("register: hash password: %w", err)
	}

	user := models.User{
		UserID:       utils.GenerateID(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.storage.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("register: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, biddingerrors.ErrNotFound) {
		return models.User{}, fmt.Errorf("authenticate: %w", biddingerrors.ErrInvalidCredentials)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("authenticate: %w", biddingerrors.ErrInvalidCredentials)
	}

	return user, nil
}
