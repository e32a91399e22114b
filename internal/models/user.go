// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account that can publish documents, like and comment.
// Users are immutable after creation except through the auth flows.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:32;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	FullName  string    `gorm:"size:120;not null" json:"fullName"`
	Avatar    *string   `json:"avatar,omitempty"`
	Role      *string   `gorm:"size:32" json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
