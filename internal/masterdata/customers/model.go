// Package customers manages customer master records.
package customers

import "time"

// Customer is a clinic or shop the distributor sells to.
type Customer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerForm is the create/update payload.
type CustomerForm struct {
	Name        string `json:"name" validate:"required,max=200"`
	ContactName string `json:"contact_name" validate:"max=120"`
	Phone       string `json:"phone" validate:"max=32"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address" validate:"max=500"`
}
