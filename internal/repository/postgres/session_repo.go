package postgres

import (
	"context"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return translateError(r.db.WithContext(ctx).Create(session).Error)
}

// Get never returns an expired session; rows past their TTL read as absent
// even before the sweeper removes them.
func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, r.now()).
		First(&session).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", id).Error)
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Delete(&domain.Session{}, "user_id = ?", userID).Error)
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Session{}, "expires_at <= ?", now)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}
