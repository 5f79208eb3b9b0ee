package types

import "time"

type Role string

const (
	RoleVolunteer   Role = "volunteer"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is one of the known roles. Roles are issued
// by the external identity provider; this core only consumes them.
func (r Role) Valid() bool {
	switch r {
	case RoleVolunteer, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Role          Role      `db:"role" json:"role"`
	ContactNumber string    `db:"contact_number" json:"contactNumber"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}
