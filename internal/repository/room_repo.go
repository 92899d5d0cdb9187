package repository

import (
	"context"
	"errors"
	"time"

	"spacerental/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

type roomModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Description *string   `gorm:"column:description"`
	Category    string    `gorm:"column:category;index"`
	Capacity    int       `gorm:"column:capacity"`
	HourlyRate  float64   `gorm:"column:hourly_rate"`
	MinHours    int       `gorm:"column:min_hours"`
	MaxHours    int       `gorm:"column:max_hours"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (roomModel) TableName() string { return "rooms" }

func toDomainRoom(m roomModel) *domain.Room {
	var description string
	if m.Description != nil {
		description = *m.Description
	}

	return &domain.Room{
		ID:          m.ID,
		Name:        m.Name,
		Description: description,
		Category:    domain.RoomCategory(m.Category),
		Capacity:    m.Capacity,
		HourlyRate:  m.HourlyRate,
		MinHours:    m.MinHours,
		MaxHours:    m.MaxHours,
		Status:      domain.RoomStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toRoomModel(r *domain.Room) roomModel {
	var description *string
	if r.Description != "" {
		v := r.Description
		description = &v
	}

	return roomModel{
		ID:          r.ID,
		Name:        r.Name,
		Description: description,
		Category:    string(r.Category),
		Capacity:    r.Capacity,
		HourlyRate:  r.HourlyRate,
		MinHours:    r.MinHours,
		MaxHours:    r.MaxHours,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	var m roomModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainRoom(m), nil
}

// Upsert inserts the room or overwrites the existing row with the same id.
func (r *RoomRepository) Upsert(ctx context.Context, room *domain.Room) error {
	m := toRoomModel(room)
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*room = *toDomainRoom(m)
	return nil
}

func (r *RoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	var rows []roomModel
	if err := r.db.WithContext(ctx).Order("category ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRoom(m))
	}
	return out, nil
}
