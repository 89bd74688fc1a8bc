package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"   validate:"required,min=3"`
	Role      Role      `json:"role"       validate:"required,oneof=ADMIN MANAGER USER"`
	CreatedAt time.Time `json:"created_at"`
}
