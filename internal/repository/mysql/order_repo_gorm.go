package mysql

import (
	"context"
	"errors"
	"sort"
	"time"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type orderRepo struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewOrderRepository(db *gorm.DB, logger zerolog.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: logger.With().Str("component", "order_repo").Logger()}
}

// Migrate creates or updates the tables backing both repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Product{}, &domain.Order{}, &domain.OrderItem{})
}

func itemsInCheckoutOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Save inserts the order and its items in one transaction.
func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		r.log.Error().Err(err).Str("order_id", order.ID).Msg("save order")
		return classify("save order", err)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsInCheckoutOrder).First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("order_id", id).Msg("find order by id")
		return nil, classify("find order", err)
	}
	return &o, nil
}

func (r *orderRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, "find orders by ids", func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	})
}

func (r *orderRepo) FindByBuyerID(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return r.find(ctx, "find orders by buyer", func(db *gorm.DB) *gorm.DB {
		return db.Where("buyer_id = ?", buyerID)
	})
}

func (r *orderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	return r.find(ctx, "find all orders", func(db *gorm.DB) *gorm.DB { return db })
}

func (r *orderRepo) FindNotFinished(ctx context.Context) ([]domain.Order, error) {
	return r.find(ctx, "find not finished orders", func(db *gorm.DB) *gorm.DB {
		return db.Where("status IN ?", domain.Unfinished())
	})
}

func (r *orderRepo) find(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Items", itemsInCheckoutOrder).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		r.log.Error().Err(err).Str("op", op).Msg("query orders")
		return nil, classify(op, err)
	}
	return out, nil
}

// UpdateStatus is a compare-and-set on the status column followed by a
// decrement-if-sufficient for every product, all inside one transaction.
func (r *orderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, decrements []domain.StockDecrement) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any{"status": to, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrOrderNotFound
			}
			return domain.ErrTransitionConflict
		}
		return decrementStock(tx, decrements, now)
	})
	if err != nil {
		if classified := classify("update order status", err); isStoreUnavailable(classified) {
			r.log.Error().Err(err).Str("order_id", id).Str("from", string(from)).Str("to", string(to)).Msg("update order status")
			return classified
		}
		return err
	}
	return nil
}

func decrementStock(tx *gorm.DB, decrements []domain.StockDecrement, now time.Time) error {
	// fixed lock order across concurrent transitions
	sorted := make([]domain.StockDecrement, len(decrements))
	copy(sorted, decrements)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, d := range sorted {
		res := tx.Model(&domain.Product{}).
			Where("id = ? AND stock >= ?", d.ProductID, d.Quantity).
			Updates(map[string]any{"stock": gorm.Expr("stock - ?", d.Quantity), "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			continue
		}

		var p domain.Product
		err := tx.Select("id", "stock").First(&p, "id = ?", d.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.ProductNotFoundError{ProductID: d.ProductID}
		}
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{ProductID: d.ProductID, Requested: d.Quantity, Available: p.Stock}
	}
	return nil
}

func (r *orderRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Order{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		r.log.Error().Err(err).Str("order_id", id).Msg("delete order")
		return 0, classify("delete order", err)
	}
	return deleted, nil
}

// classify keeps domain errors as they are and turns everything else into a
// *domain.StoreUnavailableError.
func classify(op string, err error) error {
	var (
		stockErr   *domain.InsufficientStockError
		productErr *domain.ProductNotFoundError
	)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrTransitionConflict),
		errors.As(err, &stockErr),
		errors.As(err, &productErr):
		return err
	}
	return &domain.StoreUnavailableError{Op: op, Err: err}
}

func isStoreUnavailable(err error) bool {
	var u *domain.StoreUnavailableError
	return errors.As(err, &u)
}
