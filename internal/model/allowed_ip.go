package model

import "time"

// AllowedIP 动态办公网白名单表 — 对应 allowed_ips
// 与静态配置白名单取并集，分类器按 TTL 缓存该表内容
type AllowedIP struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"              json:"id"`
	IPCIDR      string    `gorm:"column:ip_cidr;type:varchar(64);not null;uniqueIndex" json:"ip_cidr"` // 裸地址或 CIDR
	Description *string   `gorm:"type:varchar(200)"                     json:"description"`
	CreatedBy   *string   `gorm:"type:varchar(64)"                      json:"created_by"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"    json:"created_at"`
}

// TableName 指定表名
func (AllowedIP) TableName() string { return "allowed_ips" }
