package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) FindByID(ctx context.Context, sizeVariantID int64) (model.SizeVariant, error) {
	var v model.SizeVariant
	if err := r.db.WithContext(ctx).First(&v, sizeVariantID).Error; err != nil {
		return model.SizeVariant{}, mapError(err)
	}
	return v, nil
}

// 在庫が足りるときだけ減らす
// UPDATE size_variants SET stock = stock - $1 WHERE id = $2 AND stock >= $3
func (r *InventoryGormRepository) DecrementIfEnough(ctx context.Context, sizeVariantID int64, qty int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.SizeVariant{}).
		Where("id = ? AND stock >= ?", sizeVariantID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return 0, mapError(res.Error)
	}
	return res.RowsAffected, nil
}

// 在庫戻し（キャンセル・入荷）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, sizeVariantID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.SizeVariant{}).
		Where("id = ?", sizeVariantID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return mapError(err)
	}
	return nil
}
