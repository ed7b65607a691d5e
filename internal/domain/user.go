package domain

import (
	"context"
	"time"
)

type ContextKey string

const UserContextKey ContextKey = "user"

type User struct {
	ID        string    `json:"id"` // UUID
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Tags      []string  `json:"tags"` // customer segments, e.g. "vip"
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) HasTag(tag string) bool {
	for _, t := range u.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// UserRepository is the identity collaborator.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
}
