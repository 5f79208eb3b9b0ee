package types

import (
	"time"
)

type Program struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	StartDate     time.Time `db:"start_date" json:"startDate"`
	StartTime     string    `db:"start_time" json:"startTime"`
	EndTime       string    `db:"end_time" json:"endTime"`
	Location      string    `db:"location" json:"location"`
	MaxVolunteer  int       `db:"max_volunteer" json:"maxVolunteer"`
	CoordinatorID string    `db:"coordinator_id" json:"coordinatorId"`
	Image         string    `db:"image" json:"image"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// ProgramAidMaterial is an active reservation of aid-material stock
// held by a program. For any material, quantity on hand plus the sum
// of QuantityUsed across its reservations is constant.
type ProgramAidMaterial struct {
	ProgramID     string `db:"program_id" json:"programId"`
	AidMaterialID string `db:"aid_material_id" json:"aidMaterialId"`
	QuantityUsed  int    `db:"quantity_used" json:"quantityUsed"`
}

// VolunteerProgram is a registration edge between a volunteer and a
// program.
type VolunteerProgram struct {
	UserID    string    `db:"user_id" json:"userId"`
	ProgramID string    `db:"program_id" json:"programId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
