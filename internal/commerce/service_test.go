package commerce

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/talkincode/commercedesk/internal/attachment"
	"github.com/talkincode/commercedesk/internal/domain"
	"github.com/talkincode/commercedesk/pkg/errs"
)

func newTestService(t *testing.T) (*Service, *GormRepository, *attachment.Store) {
	t.Helper()
	db := newTestDB(t)
	repo := NewGormRepository(db)
	store, err := attachment.NewStore(db, filepath.Join(t.TempDir(), "attachments"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewService(repo, store), repo, store
}

func uploadTestFile(t *testing.T, store *attachment.Store, commerceID int64) int64 {
	t.Helper()
	src := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(src, []byte("content"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	id, err := store.Upload(context.Background(), commerceID, src, "", "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return id
}

func TestDeleteCommerceCascade(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	c := sampleCommerce()
	c.Locales = []domain.Locale{{Name: "Centro"}, {Name: "Puerto"}}
	id, err := svc.Create(ctx, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	uploadTestFile(t, store, id)
	uploadTestFile(t, store, id)

	if err := svc.DeleteCommerceCascade(ctx, id); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if _, err := svc.Get(ctx, id); !errs.IsNotFound(err) {
		t.Fatalf("commerce survived cascade: %v", err)
	}
	var locales int64
	repo.db.Model(&domain.Locale{}).Where("commerce_id = ?", id).Count(&locales)
	if locales != 0 {
		t.Fatalf("%d locales survived cascade", locales)
	}
	atts, err := store.List(ctx, id)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(atts) != 0 {
		t.Fatalf("%d active attachments survived cascade", len(atts))
	}
}

func TestCascadeProceedsPastFileFailure(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleCommerce())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	attID := uploadTestFile(t, store, id)

	// Replace the stored file with a non-empty directory so the
	// filesystem delete fails while the row update still succeeds.
	var att domain.CommerceAttachment
	if err := repo.db.First(&att, attID).Error; err != nil {
		t.Fatalf("lookup attachment: %v", err)
	}
	if err := os.Remove(att.StoragePath); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(att.StoragePath, "child"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := svc.DeleteCommerceCascade(ctx, id); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if _, err := svc.Get(ctx, id); !errs.IsNotFound(err) {
		t.Fatalf("commerce survived cascade: %v", err)
	}
	if err := repo.db.First(&att, attID).Error; err != nil {
		t.Fatalf("attachment row vanished: %v", err)
	}
	if att.Active.Bool() {
		t.Fatal("attachment still active after cascade")
	}
}

func TestCascadeMissingCommerce(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.DeleteCommerceCascade(context.Background(), 424242)
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
