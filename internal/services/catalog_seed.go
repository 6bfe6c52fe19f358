package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fortexx_ledger/internal/models"
)

// CatalogSeed is the YAML layout accepted by ApplySeed.
type CatalogSeed struct {
	Servers []ServerSeed `yaml:"servers"`
}

type ServerSeed struct {
	Name        string        `yaml:"name"`
	CodeName    string        `yaml:"code_name"`
	Game        string        `yaml:"game"`
	IconURL     string        `yaml:"icon_url"`
	Information string        `yaml:"information"`
	Products    []ProductSeed `yaml:"products"`
}

type ProductSeed struct {
	Name        string `yaml:"name"`
	CodeName    string `yaml:"code_name"`
	PriceEur    string `yaml:"price_eur"`
	PriceCzk    string `yaml:"price_czk"`
	Information string `yaml:"information"`
}

// SeedResult counts the rows written by ApplySeed.
type SeedResult struct {
	Servers  int
	Products int
}

// ParseCatalogSeed decodes and checks a seed document.
func ParseCatalogSeed(r io.Reader) (*CatalogSeed, error) {
	var seed CatalogSeed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to decode catalog seed: %w", err)
	}

	servers := make(map[string]bool)
	for _, srv := range seed.Servers {
		if srv.CodeName == "" {
			return nil, fmt.Errorf("server %q has no code_name", srv.Name)
		}
		if servers[srv.CodeName] {
			return nil, fmt.Errorf("server code_name %q appears twice", srv.CodeName)
		}
		servers[srv.CodeName] = true

		products := make(map[string]bool)
		for _, p := range srv.Products {
			if p.CodeName == "" {
				return nil, fmt.Errorf("product %q on server %q has no code_name", p.Name, srv.CodeName)
			}
			if products[p.CodeName] {
				return nil, fmt.Errorf("product code_name %q appears twice on server %q", p.CodeName, srv.CodeName)
			}
			products[p.CodeName] = true
			if _, err := parsePrice(p.PriceEur); err != nil {
				return nil, fmt.Errorf("product %q price_eur: %w", p.CodeName, err)
			}
			if _, err := parsePrice(p.PriceCzk); err != nil {
				return nil, fmt.Errorf("product %q price_czk: %w", p.CodeName, err)
			}
		}
	}
	return &seed, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// ApplySeed upserts servers and products by code-name in one transaction.
func (s *CatalogService) ApplySeed(ctx context.Context, seed *CatalogSeed) (SeedResult, error) {
	var result SeedResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, srv := range seed.Servers {
			var server models.Server
			err := tx.Where("code_name = ?", srv.CodeName).Order("id").Take(&server).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			server.Name = srv.Name
			server.CodeName = srv.CodeName
			server.Game = srv.Game
			server.IconURL = srv.IconURL
			server.Information = srv.Information
			if err := tx.Omit(clause.Associations).Save(&server).Error; err != nil {
				return fmt.Errorf("server %q: %w", srv.CodeName, err)
			}
			result.Servers++

			for _, p := range srv.Products {
				var product models.Product
				err := tx.Where("code_name = ? AND game_server_id = ?", p.CodeName, server.ID).Order("id").Take(&product).Error
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				product.Name = p.Name
				product.CodeName = p.CodeName
				product.GameServerID = server.ID
				product.Information = p.Information
				product.PriceEur, _ = parsePrice(p.PriceEur)
				product.PriceCzk, _ = parsePrice(p.PriceCzk)
				if err := tx.Omit(clause.Associations).Save(&product).Error; err != nil {
					return fmt.Errorf("product %q on %q: %w", p.CodeName, srv.CodeName, err)
				}
				result.Products++
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	s.invalidate(ctx)
	return result, nil
}
