package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/domain/directory"
)

func TestDoctorRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)

	repo := directory.NewDoctorRepoPG(globalPool)
	spec := "cardiology"
	email := "a.keller@example.org"
	active := true
	d := &directory.Doctor{FullName: "Dr. Anna Keller", Specialty: &spec, Email: &email, Active: &active}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Fatal("expected assigned id")
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("get doctor: %v", err)
	}
	if got.FullName != "Dr. Anna Keller" || got.Specialty == nil || *got.Specialty != "cardiology" {
		t.Errorf("unexpected doctor: %+v", got)
	}

	got.FullName = "Dr. Anna Keller-Braun"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update doctor: %v", err)
	}
	updated, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("get doctor: %v", err)
	}
	if updated.FullName != "Dr. Anna Keller-Braun" {
		t.Errorf("expected renamed doctor, got %s", updated.FullName)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("expected updated_at to advance, created=%v updated=%v", updated.CreatedAt, updated.UpdatedAt)
	}

	if err := repo.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete doctor: %v", err)
	}
	if _, err := repo.GetByID(ctx, d.ID); !errors.Is(err, directory.ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestDoctorRepo_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)

	repo := directory.NewDoctorRepoPG(globalPool)
	d := &directory.Doctor{ID: uuid.New(), FullName: "Dr. Ghost"}
	if err := repo.Update(ctx, d); !errors.Is(err, directory.ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestDoctorRepo_Search(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)

	repo := directory.NewDoctorRepoPG(globalPool)
	cardio := "cardiology"
	derm := "dermatology"
	active := true
	inactive := false
	for _, d := range []*directory.Doctor{
		{FullName: "Dr. Maria Santos", Specialty: &cardio, Active: &active},
		{FullName: "Dr. James Wu", Specialty: &cardio, Active: &inactive},
		{FullName: "Dr. Priya Shah", Specialty: &derm, Active: &active},
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("create doctor: %v", err)
		}
	}

	items, total, err := repo.Search(ctx, map[string]string{"specialty": "cardiology"}, 20, 0)
	if err != nil {
		t.Fatalf("search by specialty: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 cardiologists, got total=%d len=%d", total, len(items))
	}

	items, total, err = repo.Search(ctx, map[string]string{"specialty": "cardiology", "active": "true"}, 20, 0)
	if err != nil {
		t.Fatalf("search by specialty and active: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 active cardiologist, got total=%d", total)
	}
	if items[0].FullName != "Dr. Maria Santos" {
		t.Errorf("unexpected doctor: %s", items[0].FullName)
	}

	_, total, err = repo.Search(ctx, map[string]string{"name": "shah"}, 20, 0)
	if err != nil {
		t.Fatalf("search by name: %v", err)
	}
	if total != 1 {
		t.Errorf("expected case-insensitive name match, got %d", total)
	}
}

func TestDoctorRepo_ListPagination(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)

	repo := directory.NewDoctorRepoPG(globalPool)
	for _, name := range []string{"Dr. A", "Dr. B", "Dr. C", "Dr. D"} {
		if err := repo.Create(ctx, &directory.Doctor{FullName: name}); err != nil {
			t.Fatalf("create doctor: %v", err)
		}
	}

	items, total, err := repo.List(ctx, 3, 0)
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if total != 4 || len(items) != 3 {
		t.Errorf("expected total 4 with 3 items, got total=%d len=%d", total, len(items))
	}
	if items[0].FullName != "Dr. A" {
		t.Errorf("expected name ordering, got %s first", items[0].FullName)
	}

	items, _, err = repo.List(ctx, 3, 3)
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if len(items) != 1 || items[0].FullName != "Dr. D" {
		t.Errorf("expected final page with Dr. D, got %+v", items)
	}
}
