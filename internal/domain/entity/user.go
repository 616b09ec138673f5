package entity

import "time"

// User is the directory record stored under users/{email}. The email doubles
// as the document key, which is why it is never mutable.
type User struct {
	ID    string `json:"id" firestore:"id"`
	Email string `json:"email" firestore:"email"`
	Name  string `json:"name" firestore:"name"`
	About string `json:"about,omitempty" firestore:"about,omitempty"`

	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	LastSignInAt time.Time `json:"last_sign_in_at" firestore:"lastSignInAt"`
}

// AsParticipant returns the membership entry this user contributes to a chat
// document. Removed is false: a fresh entry never starts soft-left.
func (u *User) AsParticipant() Participant {
	return Participant{
		Email: u.Email,
		Name:  u.Name,
	}
}
