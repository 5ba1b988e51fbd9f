package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type OrderEventGormRepository struct {
	db *gorm.DB
}

func NewOrderEventGormRepository(db *gorm.DB) *OrderEventGormRepository {
	return &OrderEventGormRepository{db: db}
}

// INSERTのみ
func (r *OrderEventGormRepository) Append(ctx context.Context, e model.OrderEvent) (model.OrderEvent, error) {
	if err := r.db.WithContext(ctx).Create(&e).Error; err != nil {
		return model.OrderEvent{}, mapError(err)
	}
	return e, nil
}

func (r *OrderEventGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	events := []model.OrderEvent{}
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Order("id asc").
		Find(&events).Error
	if err != nil {
		return []model.OrderEvent{}, err
	}
	return events, nil
}
