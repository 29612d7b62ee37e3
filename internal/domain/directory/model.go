package directory

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctors table.
type Doctor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Active    *bool     `db:"active" json:"active,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive treats an unset flag as active.
func (d *Doctor) IsActive() bool {
	return d.Active == nil || *d.Active
}
