package model

import "time"

// AdminCredential 管理员口令表 — 对应 admin_credentials（单行表）
type AdminCredential struct {
	ID           int16     `gorm:"primaryKey;default:1"               json:"id"`
	PasswordHash string    `gorm:"not null"                           json:"-"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (AdminCredential) TableName() string { return "admin_credentials" }
