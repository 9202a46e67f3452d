package mysql

import (
	"context"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewProductRepository(db *gorm.DB, logger zerolog.Logger) repository.ProductRepository {
	return &productRepo{db: db, log: logger.With().Str("component", "product_repo").Logger()}
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		r.log.Error().Err(err).Int("ids", len(ids)).Msg("find products by ids")
		return nil, classify("find products", err)
	}
	return out, nil
}

// SaveAll upserts the products, overwriting title and stock of existing rows.
func (r *productRepo) SaveAll(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "stock", "updated_at"}),
		}).
		Create(&products).Error
	if err != nil {
		r.log.Error().Err(err).Int("products", len(products)).Msg("save products")
		return classify("save products", err)
	}
	return nil
}
