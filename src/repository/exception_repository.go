package repository

import (
	"context"
	"fmt"
	"time"

	"portfoliotracker/src/database"
	"portfoliotracker/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ExceptionRepository stores failed builds and other failures that were
// rolled back, so they can be inspected after the request is gone.
type ExceptionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewExceptionRepository() *ExceptionRepository {
	return NewExceptionRepositoryWithDB(database.MainDB)
}

func NewExceptionRepositoryWithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db, now: time.Now}
}

// Record writes exc on its own connection, outside any caller transaction.
// Blank service and level fall back to this service and "error".
func (r *ExceptionRepository) Record(ctx context.Context, exc *model.Exception) error {
	if exc.Service == "" {
		exc.Service = model.ServiceName
	}
	if exc.Level == "" {
		exc.Level = "error"
	}
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = r.now().UTC()
	}

	logger.WithFields(logger.Fields{
		"component": "ExceptionRepository",
		"module":    exc.Module,
		"method":    exc.Method,
	}).WithField("message", exc.Message).Error("recording failure")

	if err := r.db.WithContext(ctx).Create(exc).Error; err != nil {
		return fmt.Errorf("record exception %s.%s: %w", exc.Module, exc.Method, err)
	}
	return nil
}
