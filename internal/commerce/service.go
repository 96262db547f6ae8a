package commerce

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/talkincode/commercedesk/internal/domain"
	"github.com/talkincode/commercedesk/pkg/errs"
)

// AttachmentRemover is the slice of the attachment store the service
// needs for cascading deletion.
type AttachmentRemover interface {
	DeleteAllForCommerce(ctx context.Context, commerceID int64) (int, error)
}

// Service wraps the commerce repository with operations that span the
// relational store and the attachment store.
type Service struct {
	repo        Repository
	attachments AttachmentRemover
}

func NewService(repo Repository, attachments AttachmentRemover) *Service {
	return &Service{repo: repo, attachments: attachments}
}

func (s *Service) List(ctx context.Context, f Filter) ([]domain.Commerce, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Commerce, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c *domain.Commerce) (int64, error) {
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, c *domain.Commerce) error {
	return s.repo.Update(ctx, id, c)
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) Countries(ctx context.Context) ([]string, error) {
	return s.repo.Countries(ctx)
}

// DeleteCommerceCascade removes a commerce together with its locales
// and attachments. Attachments go first, best-effort: a partial
// attachment failure is logged and the relational delete proceeds, so
// the commerce never survives because a file refused to die. Any other
// attachment-store error aborts before relational state is touched.
func (s *Service) DeleteCommerceCascade(ctx context.Context, id int64) error {
	deleted, err := s.attachments.DeleteAllForCommerce(ctx, id)
	if err != nil {
		var pf *errs.PartialFailure
		if !errors.As(err, &pf) {
			return err
		}
		zap.L().Warn("cascade delete continuing past attachment failures",
			zap.Int64("commerce_id", id),
			zap.Int("deleted", pf.Done),
			zap.Int("failed", pf.Failed))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	zap.L().Info("commerce deleted",
		zap.Int64("commerce_id", id),
		zap.Int("attachments_deleted", deleted))
	return nil
}
