package domain

import (
	"time"
)

// SysOperator is a back-office operator account. Authentication is out
// of scope for this service; the table exists for uploader identity and
// for the per-commerce user count, which joins locale assignments
// against active operators.
type SysOperator struct {
	ID        int64     `json:"id,string" form:"id"`
	Realname  string    `json:"realname" form:"realname"`
	Mobile    string    `json:"mobile" form:"mobile"`
	Email     string    `json:"email" form:"email"`
	Username  string    `gorm:"uniqueIndex;size:64" json:"username" form:"username"`
	Password  string    `json:"-" form:"-"`
	Level     string    `json:"level" form:"level"`
	Status    string    `json:"status" form:"status"`
	Remark    string    `json:"remark" form:"remark"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysOperator) TableName() string {
	return "sys_operator"
}

// LocaleAssignment links an operator to a locale they may work in.
type LocaleAssignment struct {
	ID         int64     `json:"id,string"`
	LocaleID   int64     `gorm:"index" json:"locale_id,string"`
	OperatorID int64     `gorm:"index" json:"operator_id,string"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName Specify table name
func (LocaleAssignment) TableName() string {
	return "locale_assignments"
}
