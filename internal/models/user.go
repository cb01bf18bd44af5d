package models

import "time"

// User - идентичность из сессии, только для чтения
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session хранится локально под непрозрачным id из cookie
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
