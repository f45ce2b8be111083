package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleWorker
}

type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) Ref() *ProfileRef {
	return &ProfileRef{FullName: p.FullName, Email: p.Email}
}

type ProfilePatch struct {
	FullName  *string
	AvatarURL *string
}

type WorkerStats struct {
	TotalAssigned  int `json:"total_assigned"`
	Completed      int `json:"completed"`
	InProgress     int `json:"in_progress"`
	TotalUpdates   int `json:"total_updates"`
	CompletionRate int `json:"completion_rate"`
}
