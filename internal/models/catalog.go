package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Server is a game server that sells products through the ledger.
type Server struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"type:varchar(255)" json:"name"`
	CodeName    string `gorm:"type:varchar(64);index" json:"code_name"`
	Game        string `gorm:"type:varchar(255)" json:"game"`
	IconURL     string `gorm:"type:varchar(512)" json:"icon_url"`
	Information string `gorm:"type:text" json:"information"`

	Products []Product `gorm:"foreignKey:GameServerID" json:"products,omitempty"`
}

// Product belongs to exactly one Server. CodeName is unique only within
// its server.
type Product struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string          `gorm:"type:varchar(255)" json:"name"`
	CodeName     string          `gorm:"type:varchar(64);index" json:"code_name"`
	PriceEur     decimal.Decimal `gorm:"type:decimal(15,2)" json:"price_eur"`
	PriceCzk     decimal.Decimal `gorm:"type:decimal(15,2)" json:"price_czk"`
	GameServerID uint            `gorm:"not null;index" json:"game_server_id"`
	GameServer   *Server         `gorm:"foreignKey:GameServerID" json:"game_server,omitempty"`
	Information  string          `gorm:"type:text" json:"information"`
}
