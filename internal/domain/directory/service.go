package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service manages the doctor directory.
type Service struct {
	doctors    DoctorRepository
	invalidate func(ctx context.Context, doctorID uuid.UUID)
}

func NewService(doctors DoctorRepository) *Service {
	return &Service{doctors: doctors}
}

// SetInvalidateHook registers a callback fired after a doctor is removed,
// so dependent caches can drop stale projections.
func (s *Service) SetInvalidateHook(fn func(ctx context.Context, doctorID uuid.UUID)) {
	s.invalidate = fn
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if d.Active == nil {
		active := true
		d.Active = &active
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.doctors.Update(ctx, d)
}

// DeleteDoctor removes the doctor; their calendar events go with them and any
// cached availability is dropped.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.doctors.Delete(ctx, id); err != nil {
		return err
	}
	if s.invalidate != nil {
		s.invalidate(ctx, id)
	}
	return nil
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

func (s *Service) SearchDoctors(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.Search(ctx, params, limit, offset)
}
