package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        string `gorm:"uniqueIndex;not null" json:"-"`
	PasswordHash string `gorm:"not null" json:"-"`
	DisplayName  string `gorm:"size:50;not null" json:"display_name"`
	Bio          string `gorm:"size:280" json:"bio"`

	Avatar    string `json:"avatar"`
	AvatarKey string `json:"-"`
	Banner    string `json:"banner"`
	BannerKey string `json:"-"`
}

type UserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	Avatar      string    `json:"avatar"`
	Banner      string    `json:"banner"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Avatar:      u.Avatar,
		Banner:      u.Banner,
		CreatedAt:   u.CreatedAt,
	}
}

// ToPublicResponse omits the email address.
func (u *User) ToPublicResponse() UserResponse {
	r := u.ToResponse()
	r.Email = ""
	return r
}
