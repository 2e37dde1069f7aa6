package model

import "time"

// Staff are library operators; members (User) never authenticate.
type Staff struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffRegisterReq represents staff registration payload
// swagger:model StaffRegisterReq
type StaffRegisterReq struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

// StaffLoginReq represents staff login payload
// swagger:model StaffLoginReq
type StaffLoginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
