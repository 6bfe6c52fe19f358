package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fortexx_ledger/internal/models"
)

func TestCatalogLookup(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil, nil)

	srv1 := createServer(t, db, "srv1")
	srv2 := createServer(t, db, "srv2")
	prod1 := createProduct(t, db, srv1, "prod1")
	shared := createProduct(t, db, srv2, "prod1")
	createProduct(t, db, srv2, "dup")
	createProduct(t, db, srv2, "dup")

	tests := []struct {
		name        string
		productCode string
		serverCode  string
		expectedID  uint
	}{
		{name: "exact pair", productCode: "prod1", serverCode: "srv1", expectedID: prod1.ID},
		{name: "same product code on another server", productCode: "prod1", serverCode: "srv2", expectedID: shared.ID},
		{name: "product case differs", productCode: "PROD1", serverCode: "srv1"},
		{name: "server case differs", productCode: "prod1", serverCode: "SRV1"},
		{name: "unknown server", productCode: "prod1", serverCode: "srv3"},
		{name: "product not on that server", productCode: "dup", serverCode: "srv1"},
		{name: "ambiguous product", productCode: "dup", serverCode: "srv2"},
		{name: "empty codes", productCode: "", serverCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.Lookup(ctx, tt.productCode, tt.serverCode)
			if tt.expectedID == 0 {
				if !errors.Is(err, ErrCatalogNoMatch) {
					t.Fatalf("Lookup(%q, %q) error = %v; want ErrCatalogNoMatch", tt.productCode, tt.serverCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q, %q) unexpected error: %v", tt.productCode, tt.serverCode, err)
			}
			if got.ID != tt.expectedID {
				t.Errorf("Lookup(%q, %q) = product %d; want %d", tt.productCode, tt.serverCode, got.ID, tt.expectedID)
			}
			if got.GameServer == nil || got.GameServer.CodeName != tt.serverCode {
				t.Errorf("Lookup(%q, %q) owning server = %+v", tt.productCode, tt.serverCode, got.GameServer)
			}
		})
	}
}

func TestCatalogLookupCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	catalog := NewCatalogService(db, cache, nil)

	srv := createServer(t, db, "srv1")
	product := createProduct(t, db, srv, "prod1")

	first, err := catalog.Lookup(ctx, "prod1", "srv1")
	if err != nil {
		t.Fatalf("Lookup unexpected error: %v", err)
	}
	if !first.PriceEur.Equal(decimal.NewFromInt(5)) {
		t.Errorf("PriceEur = %s; want 5", first.PriceEur)
	}

	// bypass the service so only the cache can answer
	if err := db.Delete(&models.Product{}, product.ID).Error; err != nil {
		t.Fatalf("failed to delete product: %v", err)
	}
	cached, err := catalog.Lookup(ctx, "prod1", "srv1")
	if err != nil || cached.ID != product.ID {
		t.Fatalf("cached Lookup = %v, %v; want product %d from cache", cached, err, product.ID)
	}

	srv.Information = "maintenance"
	if err := catalog.UpdateServer(ctx, srv); err != nil {
		t.Fatalf("UpdateServer unexpected error: %v", err)
	}
	if _, err := catalog.Lookup(ctx, "prod1", "srv1"); !errors.Is(err, ErrCatalogNoMatch) {
		t.Errorf("Lookup after invalidation error = %v; want ErrCatalogNoMatch", err)
	}
}

func TestCatalogServerLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil, nil)

	server := &models.Server{Name: "Survival", CodeName: "surv"}
	if err := catalog.CreateServer(ctx, server); err != nil {
		t.Fatalf("CreateServer unexpected error: %v", err)
	}

	if err := catalog.UpdateServer(ctx, &models.Server{ID: server.ID + 100, CodeName: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateServer(missing) error = %v; want ErrNotFound", err)
	}

	product := &models.Product{Name: "VIP", CodeName: "vip", GameServerID: server.ID}
	if err := catalog.CreateProduct(ctx, product); err != nil {
		t.Fatalf("CreateProduct unexpected error: %v", err)
	}
	if err := catalog.CreateProduct(ctx, &models.Product{CodeName: "orphan", GameServerID: server.ID + 100}); !errors.Is(err, ErrServerMissing) {
		t.Errorf("CreateProduct(orphan) error = %v; want ErrServerMissing", err)
	}

	products, err := catalog.ProductsByServer(ctx, server.ID)
	if err != nil || len(products) != 1 {
		t.Fatalf("ProductsByServer = %d products, %v; want 1", len(products), err)
	}
	if _, err := catalog.ProductsByServer(ctx, server.ID+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("ProductsByServer(missing) error = %v; want ErrNotFound", err)
	}

	if err := catalog.DeleteServer(ctx, server.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("DeleteServer with products error = %v; want ErrConflict", err)
	}

	createPayment(t, db, models.Payment{User: "alice", ProductID: &product.ID})
	if err := catalog.DeleteProduct(ctx, product.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("DeleteProduct with payments error = %v; want ErrConflict", err)
	}
	if err := db.Where("product_id = ?", product.ID).Delete(&models.Payment{}).Error; err != nil {
		t.Fatalf("failed to clear payments: %v", err)
	}

	if err := catalog.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("DeleteProduct unexpected error: %v", err)
	}
	if err := catalog.DeleteProduct(ctx, product.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProduct twice error = %v; want ErrNotFound", err)
	}
	if err := catalog.DeleteServer(ctx, server.ID); err != nil {
		t.Fatalf("DeleteServer unexpected error: %v", err)
	}
	if _, err := catalog.ServerByID(ctx, server.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ServerByID after delete error = %v; want ErrNotFound", err)
	}
}

const testSeed = `
servers:
  - name: Survival
    code_name: surv
    game: Minecraft
    products:
      - name: VIP
        code_name: vip
        price_eur: 4.99
        price_czk: 125
      - name: Kit
        code_name: kit
        price_eur: "1"
  - name: Creative
    code_name: crea
    products:
      - name: VIP
        code_name: vip
        price_czk: 60
`

func TestApplySeedUpserts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil, nil)

	seed, err := ParseCatalogSeed(strings.NewReader(testSeed))
	if err != nil {
		t.Fatalf("ParseCatalogSeed unexpected error: %v", err)
	}

	for run := 1; run <= 2; run++ {
		result, err := catalog.ApplySeed(ctx, seed)
		if err != nil {
			t.Fatalf("ApplySeed run %d unexpected error: %v", run, err)
		}
		if result.Servers != 2 || result.Products != 3 {
			t.Errorf("ApplySeed run %d = %+v; want 2 servers and 3 products", run, result)
		}
	}

	if n := countRows(t, db, &models.Server{}); n != 2 {
		t.Errorf("servers = %d; want 2", n)
	}
	if n := countRows(t, db, &models.Product{}); n != 3 {
		t.Errorf("products = %d; want 3", n)
	}

	vip, err := catalog.Lookup(ctx, "vip", "surv")
	if err != nil {
		t.Fatalf("Lookup(vip, surv) unexpected error: %v", err)
	}
	if !vip.PriceEur.Equal(decimal.RequireFromString("4.99")) || !vip.PriceCzk.Equal(decimal.NewFromInt(125)) {
		t.Errorf("vip prices = %s EUR, %s CZK; want 4.99 EUR, 125 CZK", vip.PriceEur, vip.PriceCzk)
	}
}

func TestParseCatalogSeedRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing server code", doc: "servers:\n  - name: x\n"},
		{name: "duplicate server", doc: "servers:\n  - code_name: a\n  - code_name: a\n"},
		{name: "duplicate product", doc: "servers:\n  - code_name: a\n    products:\n      - code_name: p\n      - code_name: p\n"},
		{name: "bad price", doc: "servers:\n  - code_name: a\n    products:\n      - code_name: p\n        price_eur: cheap\n"},
		{name: "not yaml", doc: "servers: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalogSeed(strings.NewReader(tt.doc)); err == nil {
				t.Errorf("ParseCatalogSeed(%q) expected error", tt.doc)
			}
		})
	}
}
