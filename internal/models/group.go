package models

import (
	"time"
)

type GroupRole string

const (
	RoleOwner  GroupRole = "owner"
	RoleMember GroupRole = "member"
)

type Group struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Cover       string `json:"cover"`
	CoverKey    string `json:"-"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`

	Owner   User          `gorm:"foreignKey:OwnerID" json:"owner"`
	Members []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// GroupMember is the membership row; (group_id, user_id) is the natural key.
type GroupMember struct {
	GroupID  uint      `gorm:"primaryKey" json:"group_id"`
	UserID   uint      `gorm:"primaryKey;index" json:"user_id"`
	Role     GroupRole `gorm:"type:varchar(20);default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

type GroupSummary struct {
	Group
	Role        GroupRole `json:"role"`
	MemberCount int64     `json:"member_count"`
	MovieCount  int64     `json:"movie_count"`
}

type MemberResponse struct {
	User     UserResponse `json:"user"`
	Role     GroupRole    `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
}

func (m *GroupMember) ToResponse() MemberResponse {
	return MemberResponse{
		User:     m.User.ToPublicResponse(),
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}
