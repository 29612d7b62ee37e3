package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDoctorNotFound is returned when a doctor id matches nothing.
var ErrDoctorNotFound = errors.New("doctor not found")

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error)
}
