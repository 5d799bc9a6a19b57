package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/internal/infrastructure/models"
	"certverify.client/pkg/utils"
)

// clientStateRepo implements repositories.ClientStateRepository on SQL
type clientStateRepo struct {
	db *gorm.DB
}

// NewClientStateRepository creates a GORM backed client state repository
func NewClientStateRepository(db *gorm.DB) repositories.ClientStateRepository {
	return &clientStateRepo{db: db}
}

// Migrate creates the client_states table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ClientState{})
}

func (r *clientStateRepo) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var m models.ClientState
	err := GetDB(ctx, r.db).
		Where("namespace = ? AND state_key = ?", namespace, key).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return []byte(m.Value), nil
}

func (r *clientStateRepo) Set(ctx context.Context, namespace, key string, value []byte) error {
	now := time.Now()
	m := models.ClientState{
		ID:        utils.NewID(),
		Namespace: namespace,
		Key:       key,
		Value:     string(value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
}

func (r *clientStateRepo) Delete(ctx context.Context, namespace, key string) error {
	return GetDB(ctx, r.db).
		Where("namespace = ? AND state_key = ?", namespace, key).
		Delete(&models.ClientState{}).Error
}
