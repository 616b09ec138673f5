package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"

	"linkup/pkg/errors"
)

type FirebaseAuthClient struct {
	client     *auth.Client
	apiKey     string
	httpClient *http.Client
}

func NewFirebaseAuthClient(client *auth.Client, apiKey string) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client:     client,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", mapAdminError(err)
	}

	return user.UID, nil
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", "", errors.Unauthorized("Invalid or expired token", err)
	}

	email, _ := result.Claims["email"].(string)
	return result.UID, email, nil
}

func (f *FirebaseAuthClient) UpdateUserPassword(ctx context.Context, uid, newPassword string) error {
	params := (&auth.UserToUpdate{}).Password(newPassword)

	_, err := f.client.UpdateUser(ctx, uid, params)
	if err != nil {
		return mapAdminError(err)
	}

	return nil
}

func (f *FirebaseAuthClient) DeleteUser(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		return mapAdminError(err)
	}
	return nil
}

type signInResponse struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
}

type restError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithEmailPassword exchanges credentials for an ID token through the
// identitytoolkit REST endpoint; the admin SDK has no password check.
func (f *FirebaseAuthClient) SignInWithEmailPassword(email, password string) (string, error) {
	url := fmt.Sprintf(
		"https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword?key=%s", f.apiKey)

	payload, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return "", errors.Internal("Failed to encode sign-in request", err)
	}

	resp, err := f.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", errors.NetworkUnavailable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NetworkUnavailable(err)
	}

	if resp.StatusCode != http.StatusOK {
		var restErr restError
		if err := json.Unmarshal(body, &restErr); err == nil {
			return "", mapRestError(restErr.Error.Message)
		}
		return "", errors.New("UNKNOWN", "Authentication failed", resp.StatusCode, nil)
	}

	var result signInResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", errors.Internal("Failed to decode sign-in response", err)
	}

	return result.IDToken, nil
}

func mapRestError(message string) error {
	switch {
	case strings.HasPrefix(message, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(message, "INVALID_PASSWORD"),
		strings.HasPrefix(message, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(message, "USER_DISABLED"):
		return errors.InvalidCredentials(nil)
	case strings.HasPrefix(message, "WEAK_PASSWORD"):
		return errors.WeakPassword(nil)
	case strings.HasPrefix(message, "TOO_MANY_ATTEMPTS"):
		return errors.TooManyRequests("Too many sign-in attempts, try again later")
	default:
		return errors.New("UNKNOWN", "Authentication failed", http.StatusUnauthorized, nil)
	}
}

func mapAdminError(err error) error {
	switch {
	case auth.IsEmailAlreadyExists(err):
		return errors.Conflict("Email already in use")
	case auth.IsUserNotFound(err):
		return errors.NotFound("User", err)
	default:
		return errors.Internal("Authentication provider request failed", err)
	}
}
