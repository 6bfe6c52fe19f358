package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fortexx_ledger/internal/models"
)

var (
	ErrCatalogNoMatch = errors.New("no product matches the product and server codes")
	ErrServerMissing  = errors.New("owning server does not exist")
	ErrConflict       = errors.New("record is still referenced")
)

const (
	catalogVersionKey = "catalog:version"
	catalogCacheTTL   = 10 * time.Minute

	// MaxServerList caps the server listing.
	MaxServerList = 1024
)

// CatalogService resolves and maintains servers and their products.
type CatalogService struct {
	db     *gorm.DB
	cache  *RedisCache // optional
	logger *slog.Logger
}

func NewCatalogService(db *gorm.DB, cache *RedisCache, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{db: db, cache: cache, logger: logger}
}

// Lookup resolves a product by its code-name within the server with the given
// code-name. Both codes match exactly and case-sensitively. Zero or several
// matches return ErrCatalogNoMatch.
func (s *CatalogService) Lookup(ctx context.Context, productCode, serverCode string) (*models.Product, error) {
	if s.cache == nil {
		return s.lookup(ctx, productCode, serverCode)
	}

	version, err := s.cache.GetInt64(ctx, catalogVersionKey)
	if err != nil {
		s.logger.Warn("catalog cache unavailable", "error", err)
		return s.lookup(ctx, productCode, serverCode)
	}

	key := fmt.Sprintf("catalog:v%d:lookup:%q:%q", version, serverCode, productCode)
	product, err := GetOrSet(s.cache, ctx, key, catalogCacheTTL, func() (models.Product, error) {
		p, err := s.lookup(ctx, productCode, serverCode)
		if err != nil {
			return models.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogService) lookup(ctx context.Context, productCode, serverCode string) (*models.Product, error) {
	if productCode == "" || serverCode == "" {
		return nil, ErrCatalogNoMatch
	}

	db := s.db.WithContext(ctx)
	servers := db.Model(&models.Server{}).Select("id").Where("code_name = ?", serverCode)

	var candidates []models.Product
	err := db.Preload("GameServer").
		Where("code_name = ? AND game_server_id IN (?)", productCode, servers).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	// collations may compare case-insensitively, so match again here
	var matches []models.Product
	for _, p := range candidates {
		if p.CodeName == productCode && p.GameServer != nil && p.GameServer.CodeName == serverCode {
			matches = append(matches, p)
		}
	}
	if len(matches) != 1 {
		return nil, ErrCatalogNoMatch
	}
	return &matches[0], nil
}

// invalidate bumps the catalog version so every cached lookup goes stale.
func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Increment(ctx, catalogVersionKey); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", "error", err)
	}
}

// ListServers returns up to MaxServerList servers ordered by id.
func (s *CatalogService) ListServers(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	err := s.db.WithContext(ctx).Order("id").Limit(MaxServerList).Find(&servers).Error
	return servers, err
}

func (s *CatalogService) ServerByID(ctx context.Context, id uint) (*models.Server, error) {
	var server models.Server
	if err := s.db.WithContext(ctx).First(&server, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &server, nil
}

func (s *CatalogService) CreateServer(ctx context.Context, server *models.Server) error {
	server.ID = 0
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(server).Error; err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateServer overwrites the server identified by server.ID.
func (s *CatalogService) UpdateServer(ctx context.Context, server *models.Server) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Server
		if err := tx.First(&existing, server.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		server.CreatedAt = existing.CreatedAt
		return tx.Omit(clause.Associations).Save(server).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeleteServer removes a server that no product or payment references.
func (s *CatalogService) DeleteServer(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var server models.Server
		if err := tx.First(&server, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var products, payments int64
		if err := tx.Model(&models.Product{}).Where("game_server_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payment{}).Where("server_id = ?", id).Count(&payments).Error; err != nil {
			return err
		}
		if products > 0 || payments > 0 {
			return fmt.Errorf("%w: server %d has %d products and %d payments", ErrConflict, id, products, payments)
		}

		return tx.Delete(&server).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return productByID(s.db.WithContext(ctx).Preload("GameServer"), id)
}

func productByID(tx *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ProductsByServer lists the products of one server, or ErrNotFound when the
// server does not exist.
func (s *CatalogService) ProductsByServer(ctx context.Context, serverID uint) ([]models.Product, error) {
	if _, err := s.ServerByID(ctx, serverID); err != nil {
		return nil, err
	}
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("game_server_id = ?", serverID).
		Order("id").
		Find(&products).Error
	return products, err
}

func serverExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Server{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %d", ErrServerMissing, id)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := serverExists(tx, product.GameServerID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(product).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateProduct overwrites the product identified by product.ID. Moving it to
// a server that does not exist fails with ErrServerMissing.
func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := productByID(tx, product.ID)
		if err != nil {
			return err
		}
		if err := serverExists(tx, product.GameServerID); err != nil {
			return err
		}
		product.CreatedAt = existing.CreatedAt
		return tx.Omit(clause.Associations).Save(product).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeleteProduct removes a product that no payment references.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := productByID(tx, id)
		if err != nil {
			return err
		}
		var payments int64
		if err := tx.Model(&models.Payment{}).Where("product_id = ?", id).Count(&payments).Error; err != nil {
			return err
		}
		if payments > 0 {
			return fmt.Errorf("%w: product %d has %d payments", ErrConflict, id, payments)
		}
		return tx.Delete(product).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}
