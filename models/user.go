package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterReq struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PatchUserReq carries only the fields the profile form changed; nil means
// "leave as is".
type PatchUserReq struct {
	Name            *string `json:"name,omitempty"`
	Username        *string `json:"username,omitempty"`
	Email           *string `json:"email,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
	ConfirmPassword *string `json:"confirmPassword,omitempty"`
}

// UserUpdate is the repository side of a patch: already hashed, already
// checked against the current password.
type UserUpdate struct {
	Name         *string
	Username     *string
	Email        *string
	PasswordHash *string
}

type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
