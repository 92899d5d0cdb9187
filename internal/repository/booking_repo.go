package repository

import (
	"context"
	"fmt"
	"time"

	"spacerental/internal/domain"

	"gorm.io/gorm"
)

// BookingRepository persists the whole booking collection as one unit: Load reads
// every row in insertion order and Save atomically replaces the table contents.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type lineItemModel struct {
	ItemID   string  `json:"item_id"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type bookingModel struct {
	ID            string          `gorm:"column:id;primaryKey"`
	Seq           int             `gorm:"column:seq;index"`
	UserID        int64           `gorm:"column:user_id;index"`
	RoomID        string          `gorm:"column:room_id;index"`
	Status        string          `gorm:"column:status"`
	StartTime     time.Time       `gorm:"column:start_time"`
	EndTime       time.Time       `gorm:"column:end_time"`
	Duration      int             `gorm:"column:duration"`
	Services      []lineItemModel `gorm:"column:services;type:text;serializer:json"`
	Products      []lineItemModel `gorm:"column:products;type:text;serializer:json"`
	BasePrice     float64         `gorm:"column:base_price"`
	ServicesTotal float64         `gorm:"column:services_total"`
	ProductsTotal float64         `gorm:"column:products_total"`
	TotalPrice    float64         `gorm:"column:total_price"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainItems(items []lineItemModel) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.LineItem{ItemID: it.ItemID, Price: it.Price, Quantity: it.Quantity})
	}
	return out
}

func toItemModels(items []domain.LineItem) []lineItemModel {
	out := make([]lineItemModel, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemModel{ItemID: it.ItemID, Price: it.Price, Quantity: it.Quantity})
	}
	return out
}

func toDomainBooking(m bookingModel) domain.Booking {
	return domain.Booking{
		ID:            m.ID,
		UserID:        m.UserID,
		RoomID:        m.RoomID,
		Status:        domain.BookingStatus(m.Status),
		StartTime:     m.StartTime.UTC(),
		EndTime:       m.EndTime.UTC(),
		Duration:      m.Duration,
		Services:      toDomainItems(m.Services),
		Products:      toDomainItems(m.Products),
		BasePrice:     m.BasePrice,
		ServicesTotal: m.ServicesTotal,
		ProductsTotal: m.ProductsTotal,
		TotalPrice:    m.TotalPrice,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toBookingModel(seq int, b domain.Booking) bookingModel {
	return bookingModel{
		ID:            b.ID,
		Seq:           seq,
		UserID:        b.UserID,
		RoomID:        b.RoomID,
		Status:        string(b.Status),
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Duration:      b.Duration,
		Services:      toItemModels(b.Services),
		Products:      toItemModels(b.Products),
		BasePrice:     b.BasePrice,
		ServicesTotal: b.ServicesTotal,
		ProductsTotal: b.ProductsTotal,
		TotalPrice:    b.TotalPrice,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (r *BookingRepository) Load(ctx context.Context) ([]domain.Booking, error) {
	var rows []bookingModel
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) Save(ctx context.Context, bookings []domain.Booking) error {
	rows := make([]bookingModel, 0, len(bookings))
	for i, b := range bookings {
		rows = append(rows, toBookingModel(i, b))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&bookingModel{}).Error; err != nil {
			return fmt.Errorf("clear bookings: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("write bookings: %w", err)
		}
		return nil
	})
}
