package services

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fortexx_ledger/internal/models"
)

var testDBSeq atomic.Int64

// newTestDB opens a private in-memory database with the full schema. A single
// connection keeps the memory database alive and serializes transactions.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), GormConfig(""))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache, err := NewRedisCache("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func createServer(t *testing.T, db *gorm.DB, codeName string) *models.Server {
	t.Helper()

	server := &models.Server{Name: "Server " + codeName, CodeName: codeName, Game: "Minecraft"}
	if err := db.Create(server).Error; err != nil {
		t.Fatalf("failed to create server %q: %v", codeName, err)
	}
	return server
}

func createProduct(t *testing.T, db *gorm.DB, server *models.Server, codeName string) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:         "Product " + codeName,
		CodeName:     codeName,
		PriceEur:     decimal.RequireFromString("5"),
		PriceCzk:     decimal.RequireFromString("125"),
		GameServerID: server.ID,
	}
	if err := db.Omit("GameServer").Create(product).Error; err != nil {
		t.Fatalf("failed to create product %q: %v", codeName, err)
	}
	return product
}

func createPayment(t *testing.T, db *gorm.DB, payment models.Payment) *models.Payment {
	t.Helper()

	if err := db.Omit("Server", "Product").Create(&payment).Error; err != nil {
		t.Fatalf("failed to create payment: %v", err)
	}
	return &payment
}

func loadPayment(t *testing.T, db *gorm.DB, id uint) models.Payment {
	t.Helper()

	var payment models.Payment
	if err := db.First(&payment, id).Error; err != nil {
		t.Fatalf("failed to load payment %d: %v", id, err)
	}
	return payment
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
