package model

import "time"

type User struct {
	ID              string    `json:"id"`
	CognitoSub      string    `json:"-"`
	Email           string    `json:"email"`
	Nickname        string    `json:"nickname"`
	ProfileImageURL string    `json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DisplayName falls back to the local part of the email when no nickname is set.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}

type UserProfile struct {
	User
	DisplayName string `json:"display_name"`
}

func (u User) Profile() UserProfile {
	return UserProfile{User: u, DisplayName: u.DisplayName()}
}
