//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
)

func TestSubmissionClient_Save(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("normalizes and activates", func(t *testing.T) {
		repo := NewMockSubmissionRepo()
		c := NewSubmissionClient(repo, "memory", false, newTestLogger())
		s := &model.Submission{Name: "Jo", CarRegistration: "ab12 cde", DiscountCode: "TNT10-ABC123"}
		if err := c.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
		rows := repo.Rows()
		if len(rows) != 1 || rows[0].CarRegistration != "AB12CDE" || !rows[0].IsActive {
			t.Fatalf("unexpected rows %+v", rows)
		}
	})

	t.Run("store errors are wrapped", func(t *testing.T) {
		repo := NewMockSubmissionRepo()
		repo.InsertFunc = func(ctx context.Context, s *model.Submission) error { return errors.New("500") }
		c := NewSubmissionClient(repo, "memory", false, newTestLogger())
		err := c.Save(ctx, &model.Submission{CarRegistration: "X1"})
		if !errors.Is(err, domain.ErrPersistenceFailed) {
			t.Fatalf("expected ErrPersistenceFailed, got %v", err)
		}
		if repo.InsertCalls != 1 {
			t.Errorf("expected single attempt, got %d", repo.InsertCalls)
		}
	})

	t.Run("constraint violation is a duplicate", func(t *testing.T) {
		repo := NewMockSubmissionRepo()
		repo.InsertFunc = func(ctx context.Context, s *model.Submission) error { return domain.ErrDuplicateRegistration }
		c := NewSubmissionClient(repo, "memory", false, newTestLogger())
		if err := c.Save(ctx, &model.Submission{CarRegistration: "X1"}); !errors.Is(err, domain.ErrDuplicateRegistration) {
			t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		c := NewSubmissionClient(nil, "supabase", false, nil)
		if c.Available() {
			t.Fatal("nil repo must be unavailable")
		}
		if err := c.Save(ctx, &model.Submission{}); err != nil {
			t.Fatalf("optional store must skip, got %v", err)
		}
		req := NewSubmissionClient(nil, "supabase", true, nil)
		if err := req.Save(ctx, &model.Submission{}); !errors.Is(err, domain.ErrPersistenceUnavailable) {
			t.Fatalf("required store must fail, got %v", err)
		}
		if _, err := c.List(ctx, 10, 0); !errors.Is(err, domain.ErrPersistenceUnavailable) {
			t.Fatalf("List on unavailable store: %v", err)
		}
	})
}

func TestSubmissionClient_CheckDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := NewMockSubmissionRepo()
	c := NewSubmissionClient(repo, "memory", false, newTestLogger())
	if err := c.Save(ctx, &model.Submission{CarRegistration: "AB12CDE"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, in := range []string{"AB12CDE", "ab12 cde", "ab12-cde"} {
		if !c.CheckDuplicate(ctx, in) {
			t.Errorf("expected %q to be a duplicate", in)
		}
	}
	if c.CheckDuplicate(ctx, "ZZ99ZZZ") {
		t.Error("unexpected duplicate")
	}

	repo.ExistsFunc = func(ctx context.Context, reg string) (bool, error) { return true, errors.New("network") }
	if c.CheckDuplicate(ctx, "AB12CDE") {
		t.Error("lookup errors must fail open")
	}

	if NewSubmissionClient(nil, "supabase", false, nil).CheckDuplicate(ctx, "AB12CDE") {
		t.Error("unavailable store must report no duplicate")
	}
}

func TestSubmissionClient_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMockSubmissionRepo()
	c := NewSubmissionClient(repo, "memory", false, newTestLogger())
	for _, reg := range []string{"A1", "B2", "C3"} {
		if err := c.Save(ctx, &model.Submission{CarRegistration: reg}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := c.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].CarRegistration != "C3" || got[1].CarRegistration != "B2" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestAutomationClient_Submit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec := model.AutomationRecord{Name: "Jo", DiscountCode: "TNT10-ABC123"}

	hub := NewMockHub()
	c := NewAutomationClient(hub, newTestLogger())
	if !c.Submit(ctx, rec) {
		t.Fatal("expected true on success")
	}
	hub.Err = errors.New("401")
	if c.Submit(ctx, rec) {
		t.Fatal("expected false on hub error")
	}
	hub.configured = false
	if c.Available() || c.Submit(ctx, rec) {
		t.Fatal("unconfigured hub must be unavailable")
	}
	if NewAutomationClient(nil, nil).Available() {
		t.Fatal("nil hub must be unavailable")
	}
}
