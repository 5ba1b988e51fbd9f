package model

import "time"

// 商品×サイズごとの在庫。stockは常に0以上。
type SizeVariant struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_size_variants_product_size,priority:1" json:"product_id"`
	SizeLabel string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_size_variants_product_size,priority:2" json:"size_label"`
	Stock     int64     `gorm:"not null;default:0;check:chk_size_variants_stock,stock >= 0" json:"stock"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
