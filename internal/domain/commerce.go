package domain

import "time"

// Commerce module related models

// Commerce is a merchant/business entity administered by the back office
type Commerce struct {
	ID            int64     `json:"id,string" form:"id"`                       // Primary key ID
	Name          string    `gorm:"index" json:"name" form:"name"`             // Display name
	LegalName     string    `json:"legal_name" form:"legal_name"`              // Legal/registration name
	Address       string    `json:"address" form:"address"`                    // Central address
	Phone         string    `json:"phone" form:"phone"`                        // Contact phone
	Email         string    `json:"email" form:"email"`                        // Contact email
	Country       string    `gorm:"index" json:"country" form:"country"`       // Country
	Notes         string    `json:"notes" form:"notes"`                        // Free-text notes
	CommissionPct float64   `json:"commission_pct" form:"commission_pct"`      // Currency commission percentage, >= 0
	Active        bool      `json:"active" form:"active"`                      // Active flag
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Locales   []Locale `gorm:"foreignKey:CommerceID;constraint:OnDelete:CASCADE" json:"locales"`
	UserCount int64    `gorm:"-" json:"user_count"` // Distinct active operators assigned to any locale
}

// TableName Specify table name
func (Commerce) TableName() string {
	return "commerces"
}

// Locale is a branch/office belonging to a Commerce, with its own
// feature-module configuration
type Locale struct {
	ID             int64  `json:"id,string" form:"id"`                        // Primary key ID
	CommerceID     int64  `gorm:"index" json:"commerce_id,string"`            // Owning commerce, immutable
	Code           string `gorm:"uniqueIndex;size:16" json:"code" form:"code"` // 3 letters + 4 distinct digits
	Name           string `json:"name" form:"name"`                           // Display name
	Address        string `json:"address" form:"address"`                     // Street, required
	Number         string `json:"number" form:"number"`                       // Street number
	Stairwell      string `json:"stairwell" form:"stairwell"`                 // Stairwell
	Floor          string `json:"floor" form:"floor"`                         // Floor
	Phone          string `json:"phone" form:"phone"`                         // Contact phone
	Email          string `json:"email" form:"email"`                         // Contact email
	Notes          string `json:"notes" form:"notes"`                         // Free-text notes
	MaxUsers       int    `json:"max_users" form:"max_users"`                 // Maximum concurrent users, > 0
	Active         bool   `json:"active" form:"active"`                       // Active flag
	ModuleCurrency bool   `json:"module_currency" form:"module_currency"`     // Currency exchange module
	ModuleFood     bool   `json:"module_food" form:"module_food"`             // Food packs module
	ModuleTickets  bool   `json:"module_tickets" form:"module_tickets"`       // Airline tickets module
	ModuleTravel   bool   `json:"module_travel" form:"module_travel"`         // Travel packs module
}

// TableName Specify table name
func (Locale) TableName() string {
	return "locales"
}
