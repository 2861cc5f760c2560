package domain

import (
	"strings"
	"time"
)

// User is an account able to own tasks.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// DisplayName returns name, or the local part of email when name is blank.
func DisplayName(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[:at]
	}
	return email
}
