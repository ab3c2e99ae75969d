package postgres

import (
	"context"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rateengine/internal/order"
)

type OrderModel struct {
	ID          string       `gorm:"primaryKey;type:uuid"`
	UserID      int64        `gorm:"index:idx_user_id"`
	Username    string
	Lang        string
	Direction   string
	FromAsset   string
	ToAsset     string
	AmountFrom  float64
	AmountTo    float64
	Rate        float64
	RatePath    string
	FeePct      float64
	Status      order.Status `gorm:"index:idx_status"`
	ProofType   string
	ProofValue  string
	ProofFileID string
	CreatedAt   time.Time    `gorm:"index:idx_created_at"`
	UpdatedAt   time.Time
}

func MustInitDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(&OrderModel{})

	return db
}

func toModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		Username:    o.Username,
		Lang:        o.Lang,
		Direction:   o.Direction,
		FromAsset:   o.FromAsset,
		ToAsset:     o.ToAsset,
		AmountFrom:  o.AmountFrom,
		AmountTo:    o.AmountTo,
		Rate:        o.Rate,
		RatePath:    o.RatePath,
		FeePct:      o.FeePct,
		Status:      o.Status,
		ProofType:   o.ProofType,
		ProofValue:  o.ProofValue,
		ProofFileID: o.ProofFileID,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toDomain(m *OrderModel) *order.Order {
	return &order.Order{
		ID:          m.ID,
		UserID:      m.UserID,
		Username:    m.Username,
		Lang:        m.Lang,
		Direction:   m.Direction,
		FromAsset:   m.FromAsset,
		ToAsset:     m.ToAsset,
		AmountFrom:  m.AmountFrom,
		AmountTo:    m.AmountTo,
		Rate:        m.Rate,
		RatePath:    m.RatePath,
		FeePct:      m.FeePct,
		Status:      m.Status,
		ProofType:   m.ProofType,
		ProofValue:  m.ProofValue,
		ProofFileID: m.ProofFileID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	if err := r.DB.WithContext(ctx).Create(toModel(o)).Error; err != nil {
		return err
	}
	return nil
}

func (r *DefaultOrderRepository) GetOrderByID(ctx context.Context, id string) (*order.Order, error) {
	var m OrderModel
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return toDomain(&m), nil
}

func (r *DefaultOrderRepository) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	if err := r.DB.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error; err != nil {
		return err
	}
	return nil
}

func (r *DefaultOrderRepository) AttachProof(ctx context.Context, id, proofType, proofValue, proofFileID string) error {
	if err := r.DB.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"proof_type":    proofType,
			"proof_value":   proofValue,
			"proof_file_id": proofFileID,
			"updated_at":    time.Now().UTC(),
		}).Error; err != nil {
		return err
	}
	return nil
}

func (r *DefaultOrderRepository) ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]*order.Order, error) {
	var models []OrderModel
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*order.Order, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out, nil
}

func (r *DefaultOrderRepository) ListOrdersByStatus(ctx context.Context, status order.Status, limit int) ([]*order.Order, error) {
	var models []OrderModel
	q := r.DB.WithContext(ctx).Where("status = ?", status).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*order.Order, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out, nil
}
