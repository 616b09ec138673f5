package usecase

import (
	"context"
	"io"
)

// FirebaseAuthClient is the auth collaborator. Token lifecycle, password
// checks and account records live entirely on the provider side.
type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	SignInWithEmailPassword(email, password string) (string, error)
	VerifyToken(ctx context.Context, token string) (uid, email string, err error)
	UpdateUserPassword(ctx context.Context, uid, newPassword string) error
	DeleteUser(ctx context.Context, uid string) error
}

// FileUploader is the blob storage collaborator.
type FileUploader interface {
	Upload(ctx context.Context, file io.Reader, contentType string, progress func(written int64)) (string, error)
}

// KeyValueStore is the device-local storage collaborator.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}
