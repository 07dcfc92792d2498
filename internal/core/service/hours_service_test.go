package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

type stubHoursRepo struct {
	byID      map[string]*domain.HoursEntry
	updateErr error
}

func newStubHoursRepo() *stubHoursRepo {
	return &stubHoursRepo{byID: map[string]*domain.HoursEntry{}}
}

func (r *stubHoursRepo) Create(_ context.Context, e *domain.HoursEntry) error {
	if e.ID == "" {
		e.ID = "h-new"
	}
	clone := *e
	r.byID[e.ID] = &clone
	return nil
}

func (r *stubHoursRepo) FindByID(_ context.Context, id string) (*domain.HoursEntry, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrHoursNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *stubHoursRepo) UpdateStatus(_ context.Context, id string, from, to domain.HoursStatus, reviewer string, at time.Time) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	e := r.byID[id]
	if e.Status != from {
		return domain.ErrInvalidTransition
	}
	e.Status, e.ReviewedBy, e.ReviewedAt = to, reviewer, &at
	return nil
}

func newHoursSvc(repo *stubHoursRepo, inv *stubInvalidator) ports.HoursService {
	return NewHoursService(repo, inv, clock, zerolog.Nop())
}

func TestHoursService_Log(t *testing.T) {
	fx := newFixture()
	repo := newStubHoursRepo()
	inv := &stubInvalidator{}
	svc := newHoursSvc(repo, inv)

	e, err := svc.Log(fx.as("bob"), ports.LogHoursInput{EventID: "evt-1", Hours: 3.5})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if e.VolunteerID != "vol-bob" || e.Status != domain.HoursPending {
		t.Errorf("unexpected entry: %+v", e)
	}
	if len(inv.tags) != 1 || inv.tags[0] != TagStats {
		t.Errorf("expected stats tag invalidated, got %v", inv.tags)
	}
}

func TestHoursService_Log_Validation(t *testing.T) {
	fx := newFixture()
	svc := newHoursSvc(newStubHoursRepo(), &stubInvalidator{})

	for _, h := range []float64{0, -1, 24.5} {
		_, err := svc.Log(fx.as("bob"), ports.LogHoursInput{EventID: "evt-1", Hours: h})
		if !errors.Is(err, domain.ErrInvalidHours) {
			t.Errorf("hours=%v: expected ErrInvalidHours, got: %v", h, err)
		}
	}
}

func TestHoursService_Approve(t *testing.T) {
	fx := newFixture()
	repo := newStubHoursRepo()
	repo.byID["h-1"] = &domain.HoursEntry{ID: "h-1", VolunteerID: "vol-bob", Hours: 2, Status: domain.HoursPending}
	inv := &stubInvalidator{}
	svc := newHoursSvc(repo, inv)

	e, err := svc.Approve(fx.as("olivia"), "h-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if e.Status != domain.HoursApproved || e.ReviewedBy != "vol-olivia" {
		t.Errorf("unexpected entry after approval: %+v", e)
	}
	if e.ReviewedAt == nil || !e.ReviewedAt.Equal(fixedNow) {
		t.Errorf("expected reviewed at %s, got %v", fixedNow, e.ReviewedAt)
	}
	if len(inv.tags) != 2 || inv.tags[0] != TagStats || inv.tags[1] != TagTrends {
		t.Errorf("expected stats and trends invalidated, got %v", inv.tags)
	}
}

func TestHoursService_Review_ForbiddenForVolunteer(t *testing.T) {
	fx := newFixture()
	repo := newStubHoursRepo()
	repo.byID["h-1"] = &domain.HoursEntry{ID: "h-1", Status: domain.HoursPending}
	inv := &stubInvalidator{}
	svc := newHoursSvc(repo, inv)

	_, err := svc.Reject(fx.as("bob"), "h-1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got: %v", err)
	}
	if repo.byID["h-1"].Status != domain.HoursPending {
		t.Errorf("entry must stay pending, got %s", repo.byID["h-1"].Status)
	}
	if len(inv.tags) != 0 {
		t.Errorf("nothing should be invalidated, got %v", inv.tags)
	}
}

func TestHoursService_Review_InvalidTransition(t *testing.T) {
	fx := newFixture()
	repo := newStubHoursRepo()
	repo.byID["h-1"] = &domain.HoursEntry{ID: "h-1", Status: domain.HoursApproved}
	svc := newHoursSvc(repo, &stubInvalidator{})

	_, err := svc.Reject(fx.as("alice"), "h-1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestHoursService_Review_NotFound(t *testing.T) {
	fx := newFixture()
	svc := newHoursSvc(newStubHoursRepo(), &stubInvalidator{})

	_, err := svc.Approve(fx.as("alice"), "missing")
	if !errors.Is(err, domain.ErrHoursNotFound) {
		t.Errorf("expected ErrHoursNotFound, got: %v", err)
	}
}

func TestHoursService_InvalidationFailureDoesNotFailWrite(t *testing.T) {
	fx := newFixture()
	repo := newStubHoursRepo()
	repo.byID["h-1"] = &domain.HoursEntry{ID: "h-1", Status: domain.HoursPending}
	svc := newHoursSvc(repo, &stubInvalidator{err: errors.New("redis down")})

	if _, err := svc.Approve(fx.as("alice"), "h-1"); err != nil {
		t.Fatalf("expected approval to succeed, got: %v", err)
	}
}
