package model

import (
	"time"
)

type UserRole string

const (
	RegularUser UserRole = "user"
	Admin       UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RegularUser || r == Admin
}

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'user'" json:"role"`
	Blocked   bool      `gorm:"default:false" json:"blocked"`
	Theme     string    `gorm:"size:10;default:'light'" json:"theme"`
	LastLogin time.Time `json:"lastLogin"`
	LastSeen  time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// DirectoryEntry 用户目录中对外暴露的字段
type DirectoryEntry struct {
	ID      uint     `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
	Blocked bool     `json:"blocked"`
}

func (u *User) DirectoryEntry() DirectoryEntry {
	return DirectoryEntry{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Blocked: u.Blocked,
	}
}
