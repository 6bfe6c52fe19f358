package models

import (
	"time"

	"gorm.io/datatypes"
)

type GatewayCallbackKind string

const (
	GatewayCallbackCharge  GatewayCallbackKind = "charge"
	GatewayCallbackReport  GatewayCallbackKind = "report"
	GatewayCallbackInvalid GatewayCallbackKind = "invalid"
)

// GatewayCallback journals every inbound call from the SMS billing gateway.
type GatewayCallback struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	Kind      GatewayCallbackKind `gorm:"type:varchar(20);not null" json:"kind"`
	PaymentID int64               `gorm:"index" json:"payment_id"`
	Metadata  datatypes.JSON      `json:"metadata"`
	Outcome   string              `gorm:"type:varchar(255)" json:"outcome"`
	CreatedAt time.Time           `json:"created_at"`
}
