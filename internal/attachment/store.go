// Package attachment owns the mapping between a commerce and its
// uploaded files: physical placement in a managed directory, unique
// naming, soft deletion and cascading cleanup. File operations cannot
// join the relational transaction, so every mutation orders its steps
// to keep the inconsistency window small.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/commercedesk/internal/domain"
	"github.com/talkincode/commercedesk/pkg/common"
	"github.com/talkincode/commercedesk/pkg/errs"
)

// maxNameAttempts bounds the storage-name collision retry loop.
const maxNameAttempts = 5

// Store manages attachment rows and their physical files.
type Store struct {
	db  *gorm.DB
	dir string
}

// NewStore creates a store rooted at dir, creating the directory when
// missing.
func NewStore(db *gorm.DB, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Persistence("create storage dir", err)
	}
	return &Store{db: db, dir: dir}, nil
}

// Dir returns the managed storage directory.
func (s *Store) Dir() string { return s.dir }

// activeScope filters to rows whose flag is true or NULL (legacy rows
// read as active).
func activeScope(db *gorm.DB) *gorm.DB {
	return db.Where("active IS NULL OR active = ?", true)
}

// List returns the active attachments of a commerce, newest first.
func (s *Store) List(ctx context.Context, commerceID int64) ([]domain.CommerceAttachment, error) {
	var atts []domain.CommerceAttachment
	err := activeScope(s.db.WithContext(ctx)).
		Where("commerce_id = ?", commerceID).
		Order("uploaded_at DESC").
		Find(&atts).Error
	if err != nil {
		return nil, errs.Persistence("list attachments", err)
	}
	return atts, nil
}

// Upload copies the file at sourcePath into the managed directory under
// a server-generated unique name and inserts the attachment row. The
// copy and the insert are not atomic: when the insert fails the
// orphaned copy is removed before the error is surfaced.
func (s *Store) Upload(ctx context.Context, commerceID int64, sourcePath, description, uploader string) (int64, error) {
	info, err := os.Stat(sourcePath)
	if err != nil || !info.Mode().IsRegular() {
		return 0, &errs.NotFoundError{Entity: "source file", Detail: sourcePath}
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	name, err := s.uniqueStorageName(ctx, commerceID, ext)
	if err != nil {
		return 0, err
	}
	dest := filepath.Join(s.dir, name)

	size, err := copyFile(ctx, sourcePath, dest)
	if err != nil {
		return 0, errs.Persistence("copy attachment", err)
	}

	att := &domain.CommerceAttachment{
		ID:           common.UUIDint64(),
		CommerceID:   commerceID,
		StorageName:  name,
		StoragePath:  dest,
		OriginalName: filepath.Base(sourcePath),
		TypeLabel:    TypeLabelForExt(ext),
		SizeBytes:    size,
		Description:  description,
		UploadedAt:   time.Now(),
		UploadedBy:   uploader,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(att).Error; err != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
			zap.L().Warn("failed to remove orphaned attachment file",
				zap.String("path", dest),
				zap.Error(rmErr))
		}
		return 0, errs.Persistence("insert attachment", err)
	}

	zap.L().Info("attachment uploaded",
		zap.Int64("commerce_id", commerceID),
		zap.String("storage_name", name),
		zap.Int64("size_bytes", size))
	return att.ID, nil
}

// uniqueStorageName derives {commerceID}_{yyyyMMdd_HHmmss}_{8hex}{ext}
// and re-rolls when the name is already taken. The unique index on
// storage_name remains the hard guarantee.
func (s *Store) uniqueStorageName(ctx context.Context, commerceID int64, ext string) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := fmt.Sprintf("%d_%s_%s%s",
			commerceID, time.Now().Format("20060102_150405"), common.RandomHex8(), ext)
		var count int64
		err := s.db.WithContext(ctx).Model(&domain.CommerceAttachment{}).
			Where("storage_name = ?", name).
			Count(&count).Error
		if err != nil {
			return "", errs.Persistence("check storage name", err)
		}
		if count == 0 {
			return name, nil
		}
	}
	return "", errs.Persistence("generate storage name", errors.New("name collision retries exhausted"))
}

// Resolve returns the active attachment row after verifying its
// physical file still exists. Read-only.
func (s *Store) Resolve(ctx context.Context, id int64) (*domain.CommerceAttachment, error) {
	var att domain.CommerceAttachment
	err := activeScope(s.db.WithContext(ctx)).First(&att, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("attachment", id)
	}
	if err != nil {
		return nil, errs.Persistence("resolve attachment", err)
	}
	if !common.FileExists(att.StoragePath) {
		return nil, &errs.NotFoundError{Entity: "attachment", ID: id,
			Detail: "stored file missing on disk: " + att.StoragePath}
	}
	return &att, nil
}

// Download copies the attachment bytes to destPath, creating missing
// destination directories. Never mutates store state.
func (s *Store) Download(ctx context.Context, id int64, destPath string) error {
	att, err := s.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Persistence("create destination dir", err)
		}
	}
	if _, err := copyFile(ctx, att.StoragePath, destPath); err != nil {
		return errs.Persistence("download attachment", err)
	}
	return nil
}

// Delete removes the physical file when present and flags the row
// inactive. A missing file is tolerated so deletion stays idempotent
// against prior partial failures; a failing filesystem delete is
// logged but does not block deactivation (an orphaned file is
// preferred over a stuck row — the sweep job reclaims it later). The
// returned bool reports whether a row changed state.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	var att domain.CommerceAttachment
	err := s.db.WithContext(ctx).First(&att, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errs.Persistence("lookup attachment", err)
	}

	if att.StoragePath != "" {
		if err := os.Remove(att.StoragePath); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("failed to remove attachment file, row will still be deactivated",
				zap.Int64("attachment_id", id),
				zap.String("path", att.StoragePath),
				zap.Error(err))
		}
	}

	res := activeScope(s.db.WithContext(ctx).Model(&domain.CommerceAttachment{})).
		Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return false, errs.Persistence("deactivate attachment", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteAllForCommerce deletes every active attachment of a commerce,
// best-effort: a failure on one item does not abort the rest. The
// count of successful deletions is always returned; when some rows
// could not be updated the error is a *errs.PartialFailure.
func (s *Store) DeleteAllForCommerce(ctx context.Context, commerceID int64) (int, error) {
	atts, err := s.List(ctx, commerceID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	var failures []error
	for _, att := range atts {
		done, err := s.Delete(ctx, att.ID)
		if err != nil {
			zap.L().Error("attachment delete failed during cascade",
				zap.Int64("commerce_id", commerceID),
				zap.Int64("attachment_id", att.ID),
				zap.Error(err))
			failures = append(failures, err)
			continue
		}
		if done {
			deleted++
		}
	}

	if len(failures) > 0 {
		return deleted, &errs.PartialFailure{
			Op:     "delete commerce attachments",
			Done:   deleted,
			Failed: len(failures),
			Errs:   failures,
		}
	}
	return deleted, nil
}

// Sweep removes files in the storage directory that no live attachment
// row references and that are older than grace. It finishes cleanups
// interrupted between the physical delete and the row update, and
// reclaims orphans left by failed uploads. Returns the number of files
// removed.
func (s *Store) Sweep(ctx context.Context, grace time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errs.Persistence("read storage dir", err)
	}

	cutoff := time.Now().Add(-grace)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		var count int64
		err = activeScope(s.db.WithContext(ctx).Model(&domain.CommerceAttachment{})).
			Where("storage_name = ?", entry.Name()).
			Count(&count).Error
		if err != nil {
			return removed, errs.Persistence("sweep storage dir", err)
		}
		if count > 0 {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			zap.L().Warn("sweep could not remove orphaned file",
				zap.String("name", entry.Name()),
				zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// TypeLabelForExt classifies a file extension into a descriptive label.
func TypeLabelForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "PDF"
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return "Image"
	case ".doc", ".docx", ".odt", ".rtf":
		return "Document"
	case ".xls", ".xlsx", ".ods", ".csv":
		return "Spreadsheet"
	case ".zip", ".rar", ".7z", ".tar", ".gz":
		return "Archive"
	case ".txt", ".md", ".log":
		return "Text"
	default:
		return "File"
	}
}

// ctxReader aborts a streaming copy when the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// copyFile streams src to dst and returns the bytes written. The
// partial destination file is removed on failure.
func copyFile(ctx context.Context, src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, ctxReader{ctx: ctx, r: in})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return n, nil
}
