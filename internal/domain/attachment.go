package domain

import (
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
)

// BoolFlag is a two-state active flag stored in a legacy nullable
// boolean column. NULL is normalized to true (active) when scanning so
// the tri-state never leaks past the storage adapter.
type BoolFlag bool

// Scan implements sql.Scanner.
func (f *BoolFlag) Scan(value interface{}) error {
	if value == nil {
		*f = true
		return nil
	}
	switch v := value.(type) {
	case bool:
		*f = BoolFlag(v)
	case int64:
		*f = v != 0
	default:
		return errors.Errorf("cannot scan %T into BoolFlag", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (f BoolFlag) Value() (driver.Value, error) {
	return bool(f), nil
}

// Bool returns the flag as a plain bool.
func (f BoolFlag) Bool() bool { return bool(f) }

// CommerceAttachment is a file uploaded and associated with a Commerce.
// StorageName is server generated and unique across the store;
// StoragePath points at the physical copy inside the managed directory.
type CommerceAttachment struct {
	ID          int64     `json:"id,string" form:"id"`                                  // Primary key ID
	CommerceID  int64     `gorm:"index" json:"commerce_id,string"`                      // Owning commerce, immutable
	StorageName string    `gorm:"uniqueIndex;size:128" json:"storage_name"`             // Server-generated unique name
	StoragePath string    `json:"storage_path"`                                         // Physical path in the storage dir
	OriginalName string   `json:"original_name"`                                        // User-supplied filename
	TypeLabel   string    `json:"type_label"`                                           // PDF, Image, Document, ...
	SizeBytes   int64     `json:"size_bytes"`                                           // Byte-precision size
	Description string    `json:"description" form:"description"`                       // Optional description
	UploadedAt  time.Time `json:"uploaded_at"`                                          // Upload timestamp
	UploadedBy  string    `json:"uploaded_by"`                                          // Uploader identity
	Active      BoolFlag  `gorm:"type:boolean;default:true" json:"active"`              // Soft-delete flag, NULL reads as active
}

// TableName Specify table name
func (CommerceAttachment) TableName() string {
	return "commerce_attachments"
}
