package audit

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Repository interface {
	CreateExchange(ctx context.Context, exchange *Exchange) (uint, error)
	ExchangesForOrder(ctx context.Context, orderID string, limit int) ([]*Exchange, error)
}

type ORMRepository struct {
	logger *logrus.Entry
	db     *gorm.DB
}

func NewORMRepository(db *gorm.DB, log *logrus.Logger) (*ORMRepository, error) {
	if err := db.AutoMigrate(&Exchange{}); err != nil {
		return nil, err
	}

	return &ORMRepository{
		logger: log.WithField("component", "audit-repository"),
		db:     db,
	}, nil
}

func (rep *ORMRepository) CreateExchange(ctx context.Context, exchange *Exchange) (uint, error) {
	result := rep.db.WithContext(ctx).Create(exchange)
	if result.Error != nil {
		rep.logger.Errorf("Failed to save exchange: %v", result.Error)
		return 0, result.Error
	}

	rep.logger.Debug("Exchange saved")
	return exchange.ID, nil
}

// ExchangesForOrder returns the newest exchanges first.
func (rep *ORMRepository) ExchangesForOrder(ctx context.Context, orderID string, limit int) ([]*Exchange, error) {
	var exchanges []*Exchange
	result := rep.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id desc").
		Limit(limit).
		Find(&exchanges)
	if result.Error != nil {
		rep.logger.Errorf("Failed to get exchanges: %v", result.Error)
		return nil, result.Error
	}

	return exchanges, nil
}

func ConnectPGSQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
