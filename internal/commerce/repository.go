package commerce

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/talkincode/commercedesk/internal/domain"
	"github.com/talkincode/commercedesk/pkg/common"
	"github.com/talkincode/commercedesk/pkg/errs"
)

// maxCodeAttempts bounds the retry loop when a generated locale code
// collides with an existing row.
const maxCodeAttempts = 5

// Filter narrows the commerce listing. Query matches commerce names and
// locale names/codes; Active nil means both states.
type Filter struct {
	Query   string
	Country string
	Active  *bool
}

// Stats carries the dashboard counters.
type Stats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Locales  int64 `json:"locales"`
}

// Repository handles relational persistence for the commerce⇄locale
// aggregate.
type Repository interface {
	// List returns commerces ordered by name with locales preloaded and
	// the distinct active operator count populated.
	List(ctx context.Context, filter Filter) ([]domain.Commerce, error)

	// Get returns one commerce with its locales.
	Get(ctx context.Context, id int64) (*domain.Commerce, error)

	// Create inserts the commerce and all supplied locales atomically.
	Create(ctx context.Context, c *domain.Commerce) (int64, error)

	// Update rewrites mutable commerce fields and reconciles the locale
	// set inside the same transaction.
	Update(ctx context.Context, id int64, c *domain.Commerce) error

	// SetActive toggles the active flag; idempotent.
	SetActive(ctx context.Context, id int64, active bool) error

	// Delete removes the commerce row and its locales in one
	// transaction. Attachment cleanup is the coordinator's job.
	Delete(ctx context.Context, id int64) error

	// Stats returns the dashboard counters.
	Stats(ctx context.Context) (Stats, error)

	// Countries returns the distinct countries present, for filters.
	Countries(ctx context.Context) ([]string, error)
}

// GormRepository is the GORM implementation of Repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM-based repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func validateCommerce(c *domain.Commerce) error {
	if strings.TrimSpace(c.Name) == "" {
		return errs.Validation("name", "commerce name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return errs.Validation("email", "contact email is required")
	}
	if c.CommissionPct < 0 {
		return errs.Validation("commission_pct", "commission percentage must not be negative")
	}
	return nil
}

func (r *GormRepository) List(ctx context.Context, filter Filter) ([]domain.Commerce, error) {
	q := r.db.WithContext(ctx).Model(&domain.Commerce{})

	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR id IN (SELECT commerce_id FROM locales WHERE LOWER(name) LIKE ? OR LOWER(code) LIKE ?)",
			like, like, like)
	}
	if filter.Country != "" {
		q = q.Where("country = ?", filter.Country)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}

	var commerces []domain.Commerce
	err := q.
		Preload("Locales", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Order("name ASC").
		Find(&commerces).Error
	if err != nil {
		return nil, errs.Persistence("list commerces", err)
	}

	counts, err := r.userCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range commerces {
		commerces[i].UserCount = counts[commerces[i].ID]
	}
	return commerces, nil
}

// userCounts returns the number of distinct active operators assigned
// to any locale, grouped by commerce. The assignment relation is
// external to the aggregate, so this is a read-only join.
func (r *GormRepository) userCounts(ctx context.Context) (map[int64]int64, error) {
	type row struct {
		CommerceID int64
		Users      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Raw(`
		SELECT l.commerce_id AS commerce_id, COUNT(DISTINCT la.operator_id) AS users
		FROM locale_assignments la
		JOIN locales l ON la.locale_id = l.id
		JOIN sys_operator o ON la.operator_id = o.id
		WHERE o.status = ?
		GROUP BY l.commerce_id`, common.ENABLED).Scan(&rows).Error
	if err != nil {
		return nil, errs.Persistence("count commerce users", err)
	}
	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.CommerceID] = row.Users
	}
	return counts, nil
}

func (r *GormRepository) Get(ctx context.Context, id int64) (*domain.Commerce, error) {
	var c domain.Commerce
	err := r.db.WithContext(ctx).
		Preload("Locales", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("commerce", id)
	}
	if err != nil {
		return nil, errs.Persistence("get commerce", err)
	}
	return &c, nil
}

func (r *GormRepository) Create(ctx context.Context, c *domain.Commerce) (int64, error) {
	if err := validateCommerce(c); err != nil {
		return 0, err
	}

	c.ID = common.UUIDint64()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	locales := c.Locales
	c.Locales = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		for i := range locales {
			if err := r.insertLocale(tx, c, &locales[i]); err != nil {
				return err
			}
		}
		return nil
	})
	c.Locales = locales
	if err != nil {
		return 0, errs.Persistence("create commerce", err)
	}
	return c.ID, nil
}

func (r *GormRepository) insertLocale(tx *gorm.DB, c *domain.Commerce, l *domain.Locale) error {
	l.ID = common.UUIDint64()
	l.CommerceID = c.ID
	if l.MaxUsers <= 0 {
		l.MaxUsers = 1
	}
	if l.Code == "" {
		code, err := uniqueLocaleCode(tx, c.Name)
		if err != nil {
			return err
		}
		l.Code = code
	}
	return tx.Create(l).Error
}

// uniqueLocaleCode generates a locale code and re-rolls a bounded
// number of times when the code is already taken. The unique index on
// locales.code remains the hard guarantee.
func uniqueLocaleCode(tx *gorm.DB, commerceName string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := GenerateLocaleCode(commerceName)
		var count int64
		if err := tx.Model(&domain.Locale{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique locale code")
}

func (r *GormRepository) Update(ctx context.Context, id int64, c *domain.Commerce) error {
	if err := validateCommerce(c); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Commerce
		if err := tx.First(&existing, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":           strings.TrimSpace(c.Name),
			"legal_name":     c.LegalName,
			"address":        c.Address,
			"phone":          c.Phone,
			"email":          strings.TrimSpace(c.Email),
			"country":        c.Country,
			"notes":          c.Notes,
			"commission_pct": c.CommissionPct,
			"active":         c.Active,
			"updated_at":     time.Now(),
		}
		if err := tx.Model(&domain.Commerce{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		// A nil locale slice means the caller did not submit the set;
		// a non-nil slice is reconciled in full.
		if c.Locales == nil {
			return nil
		}
		existing.ID = id
		existing.Name = strings.TrimSpace(c.Name)
		return r.reconcileLocales(tx, &existing, c.Locales)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound("commerce", id)
	}
	if err != nil {
		return errs.Persistence("update commerce", err)
	}
	return nil
}

// reconcileLocales diffs the submitted locale set against the persisted
// one: zero-id entries are inserted, known ids are updated in place,
// and persisted locales absent from the submission are deleted.
func (r *GormRepository) reconcileLocales(tx *gorm.DB, c *domain.Commerce, submitted []domain.Locale) error {
	var persisted []domain.Locale
	if err := tx.Where("commerce_id = ?", c.ID).Find(&persisted).Error; err != nil {
		return err
	}

	keep := make(map[int64]bool, len(submitted))
	for i := range submitted {
		l := &submitted[i]
		if l.ID == 0 {
			if err := r.insertLocale(tx, c, l); err != nil {
				return err
			}
			keep[l.ID] = true
			continue
		}
		keep[l.ID] = true
		if l.MaxUsers <= 0 {
			l.MaxUsers = 1
		}
		// Code and owner are immutable once assigned.
		err := tx.Model(&domain.Locale{}).
			Where("id = ? AND commerce_id = ?", l.ID, c.ID).
			Updates(map[string]interface{}{
				"name":            l.Name,
				"address":         l.Address,
				"number":          l.Number,
				"stairwell":       l.Stairwell,
				"floor":           l.Floor,
				"phone":           l.Phone,
				"email":           l.Email,
				"notes":           l.Notes,
				"max_users":       l.MaxUsers,
				"active":          l.Active,
				"module_currency": l.ModuleCurrency,
				"module_food":     l.ModuleFood,
				"module_tickets":  l.ModuleTickets,
				"module_travel":   l.ModuleTravel,
			}).Error
		if err != nil {
			return err
		}
	}

	for _, p := range persisted {
		if !keep[p.ID] {
			if err := tx.Delete(&domain.Locale{}, p.ID).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *GormRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.Commerce{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return errs.Persistence("set commerce active", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("commerce", id)
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Commerce
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		// The schema declares ON DELETE CASCADE; the explicit child
		// delete keeps the aggregate consistent on backends that do
		// not enforce foreign keys.
		if err := tx.Where("commerce_id = ?", id).Delete(&domain.Locale{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Commerce{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound("commerce", id)
	}
	if err != nil {
		return errs.Persistence("delete commerce", err)
	}
	return nil
}

func (r *GormRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Commerce{}).Count(&s.Total).Error; err != nil {
		return s, errs.Persistence("commerce stats", err)
	}
	if err := db.Model(&domain.Commerce{}).Where("active = ?", true).Count(&s.Active).Error; err != nil {
		return s, errs.Persistence("commerce stats", err)
	}
	s.Inactive = s.Total - s.Active
	if err := db.Model(&domain.Locale{}).Count(&s.Locales).Error; err != nil {
		return s, errs.Persistence("commerce stats", err)
	}
	return s, nil
}

func (r *GormRepository) Countries(ctx context.Context) ([]string, error) {
	var countries []string
	err := r.db.WithContext(ctx).Model(&domain.Commerce{}).
		Where("country <> ''").
		Distinct("country").
		Order("country ASC").
		Pluck("country", &countries).Error
	if err != nil {
		return nil, errs.Persistence("list countries", err)
	}
	return countries, nil
}
