package commerce

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/commercedesk/internal/domain"
	"github.com/talkincode/commercedesk/pkg/common"
	"github.com/talkincode/commercedesk/pkg/errs"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleCommerce() *domain.Commerce {
	return &domain.Commerce{
		Name:          "Acme Exchange",
		LegalName:     "Acme Exchange S.L.",
		Email:         "info@acme.example",
		Country:       "Spain",
		CommissionPct: 2.5,
		Active:        true,
	}
}

func TestCreateAndGetCommerce(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	c := sampleCommerce()
	c.Locales = []domain.Locale{
		{Name: "Centro"},
		{Name: "Aeropuerto", MaxUsers: 5, Active: true},
	}

	id, err := repo.Create(ctx, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Fatal("create returned zero id")
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Locales) != 2 {
		t.Fatalf("expected 2 locales, got %d", len(got.Locales))
	}
	// Preload orders by name ASC.
	if got.Locales[0].Name != "Aeropuerto" || got.Locales[1].Name != "Centro" {
		t.Fatalf("locales out of order: %q, %q", got.Locales[0].Name, got.Locales[1].Name)
	}
	for _, l := range got.Locales {
		if !codePattern.MatchString(l.Code) {
			t.Errorf("locale %q has malformed code %q", l.Name, l.Code)
		}
		if l.MaxUsers < 1 {
			t.Errorf("locale %q max users %d, want >= 1", l.Name, l.MaxUsers)
		}
		if l.CommerceID != id {
			t.Errorf("locale %q not owned by commerce", l.Name)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*domain.Commerce)
	}{
		{"missing name", func(c *domain.Commerce) { c.Name = "  " }},
		{"missing email", func(c *domain.Commerce) { c.Email = "" }},
		{"negative commission", func(c *domain.Commerce) { c.CommissionPct = -1 }},
	}
	for _, tc := range cases {
		c := sampleCommerce()
		tc.mutate(c)
		_, err := repo.Create(ctx, c)
		if !errs.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	var count int64
	repo.db.Model(&domain.Commerce{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected creates persisted %d rows", count)
	}
}

func TestCreateAtomicity(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	c := sampleCommerce()
	// Duplicate preset codes trip the unique index on the second insert;
	// the whole aggregate must roll back.
	c.Locales = []domain.Locale{
		{Name: "First", Code: "ABC1234"},
		{Name: "Second", Code: "ABC1234"},
	}
	if _, err := repo.Create(ctx, c); err == nil {
		t.Fatal("expected create to fail on duplicate locale code")
	}

	var commerces, locales int64
	repo.db.Model(&domain.Commerce{}).Count(&commerces)
	repo.db.Model(&domain.Locale{}).Count(&locales)
	if commerces != 0 || locales != 0 {
		t.Fatalf("partial create persisted: %d commerces, %d locales", commerces, locales)
	}
}

func TestUpdateReconcilesLocales(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	c := sampleCommerce()
	c.Locales = []domain.Locale{
		{Name: "Centro", Code: "CEN1234"},
		{Name: "Puerto", Code: "PUE5678"},
	}
	id, err := repo.Create(ctx, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var centro domain.Locale
	if err := repo.db.Where("code = ?", "CEN1234").First(&centro).Error; err != nil {
		t.Fatalf("lookup centro: %v", err)
	}

	upd := sampleCommerce()
	upd.Name = "Acme Renamed"
	upd.Locales = []domain.Locale{
		// Kept and renamed; a submitted code change must not stick.
		{ID: centro.ID, Name: "Centro Nuevo", Code: "XXX9999", MaxUsers: 3},
		// New locale, server-generated code.
		{Name: "Estación"},
		// Puerto omitted: must be deleted.
	}
	if err := repo.Update(ctx, id, upd); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Acme Renamed" {
		t.Errorf("name not updated: %q", got.Name)
	}
	if len(got.Locales) != 2 {
		t.Fatalf("expected 2 locales after reconcile, got %d", len(got.Locales))
	}
	byName := map[string]domain.Locale{}
	for _, l := range got.Locales {
		byName[l.Name] = l
	}
	if kept, okl := byName["Centro Nuevo"]; !okl {
		t.Error("renamed locale missing")
	} else {
		if kept.Code != "CEN1234" {
			t.Errorf("locale code mutated to %q", kept.Code)
		}
		if kept.MaxUsers != 3 {
			t.Errorf("max users not updated: %d", kept.MaxUsers)
		}
	}
	if added, okl := byName["Estación"]; !okl {
		t.Error("new locale missing")
	} else if !codePattern.MatchString(added.Code) {
		t.Errorf("new locale code malformed: %q", added.Code)
	}
	if _, okl := byName["Puerto"]; okl {
		t.Error("omitted locale survived reconcile")
	}
}

func TestUpdateNilLocalesLeavesSet(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	c := sampleCommerce()
	c.Locales = []domain.Locale{{Name: "Centro"}}
	id, err := repo.Create(ctx, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	upd := sampleCommerce()
	upd.Notes = "updated"
	// nil slice means the caller did not submit locales at all.
	upd.Locales = nil
	if err := repo.Update(ctx, id, upd); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Locales) != 1 {
		t.Fatalf("locale set changed on nil submission: %d", len(got.Locales))
	}
	if got.Notes != "updated" {
		t.Errorf("notes not updated: %q", got.Notes)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	err := repo.Update(context.Background(), 424242, sampleCommerce())
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetActive(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleCommerce())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SetActive(ctx, id, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, _ := repo.Get(ctx, id)
	if got.Active {
		t.Fatal("commerce still active after deactivate")
	}

	// Idempotent: repeating the same state is not an error.
	if err := repo.SetActive(ctx, id, false); err != nil {
		t.Fatalf("repeat deactivate: %v", err)
	}

	if err := repo.SetActive(ctx, 424242, true); !errs.IsNotFound(err) {
		t.Fatalf("expected not found for missing id, got %v", err)
	}
}

func TestDeleteRemovesLocales(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	c := sampleCommerce()
	c.Locales = []domain.Locale{{Name: "Centro"}, {Name: "Puerto"}}
	id, err := repo.Create(ctx, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var locales int64
	repo.db.Model(&domain.Locale{}).Where("commerce_id = ?", id).Count(&locales)
	if locales != 0 {
		t.Fatalf("%d locales survived commerce delete", locales)
	}

	if _, err := repo.Get(ctx, id); !errs.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, id); !errs.IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListFiltersAndUserCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	acme := sampleCommerce()
	acme.Locales = []domain.Locale{{Name: "Centro", Code: "CEN1111"}}
	acmeID, err := repo.Create(ctx, acme)
	if err != nil {
		t.Fatalf("create acme: %v", err)
	}

	other := sampleCommerce()
	other.Name = "Borealis Travel"
	other.Country = "Portugal"
	other.Active = false
	if _, err := repo.Create(ctx, other); err != nil {
		t.Fatalf("create borealis: %v", err)
	}

	// Two operators assigned to the same locale, one disabled. Only the
	// enabled one counts.
	var centro domain.Locale
	if err := db.Where("code = ?", "CEN1111").First(&centro).Error; err != nil {
		t.Fatalf("lookup centro: %v", err)
	}
	enabled := domain.SysOperator{ID: common.UUIDint64(), Username: "op1", Status: common.ENABLED}
	disabled := domain.SysOperator{ID: common.UUIDint64(), Username: "op2", Status: common.DISABLED}
	db.Create(&enabled)
	db.Create(&disabled)
	db.Create(&domain.LocaleAssignment{ID: common.UUIDint64(), LocaleID: centro.ID, OperatorID: enabled.ID})
	db.Create(&domain.LocaleAssignment{ID: common.UUIDint64(), LocaleID: centro.ID, OperatorID: disabled.ID})

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 commerces, got %d", len(all))
	}
	// Ordered by name.
	if all[0].Name != "Acme Exchange" {
		t.Errorf("listing not ordered by name: %q first", all[0].Name)
	}
	for _, item := range all {
		if item.ID == acmeID && item.UserCount != 1 {
			t.Errorf("acme user count = %d, want 1", item.UserCount)
		}
	}

	// Query matches locale codes too.
	byCode, err := repo.List(ctx, Filter{Query: "cen11"})
	if err != nil {
		t.Fatalf("list by code: %v", err)
	}
	if len(byCode) != 1 || byCode[0].ID != acmeID {
		t.Fatalf("locale code query returned %d rows", len(byCode))
	}

	byCountry, err := repo.List(ctx, Filter{Country: "Portugal"})
	if err != nil {
		t.Fatalf("list by country: %v", err)
	}
	if len(byCountry) != 1 || byCountry[0].Name != "Borealis Travel" {
		t.Fatalf("country filter returned %d rows", len(byCountry))
	}

	active := true
	byActive, err := repo.List(ctx, Filter{Active: &active})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(byActive) != 1 || byActive[0].ID != acmeID {
		t.Fatalf("active filter returned %d rows", len(byActive))
	}
}

func TestStatsAndCountries(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	a := sampleCommerce()
	a.Locales = []domain.Locale{{Name: "Centro"}, {Name: "Puerto"}}
	if _, err := repo.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	b := sampleCommerce()
	b.Name = "Borealis"
	b.Country = "Portugal"
	b.Active = false
	if _, err := repo.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Active != 1 || stats.Inactive != 1 || stats.Locales != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	countries, err := repo.Countries(ctx)
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if len(countries) != 2 || countries[0] != "Portugal" || countries[1] != "Spain" {
		t.Fatalf("unexpected countries: %v", countries)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	_, err := repo.Get(context.Background(), 424242)
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != "commerce" {
		t.Errorf("entity = %q, want commerce", nf.Entity)
	}
}
