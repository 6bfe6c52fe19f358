package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType tags the intake path that produced a payment. Informant reports
// carry their own free-form type, so the set is open.
type PaymentType string

const (
	PaymentTypeSMS PaymentType = "SMS"
)

// PaymentStatus is an open set of labels. Only StatusPaymentRequested takes
// part in transition logic; Activated is the terminal marker for every path.
type PaymentStatus string

// SMS intake statuses.
const (
	StatusWaiting          PaymentStatus = "WAITING"
	StatusPaymentRequested PaymentStatus = "PAYMENT REQUESTED"
	StatusPaymentRequired  PaymentStatus = "PAYMENT REQUIRED"
	StatusUndelivered      PaymentStatus = "UNDELIVERED"
)

// Informant intake statuses.
const (
	StatusRequiresConfirmation PaymentStatus = "REQUIRES CONFIRMATION"
)

// Currency codes used by the ledger. CurrencyUnknown marks informant reports,
// which carry no amount.
const (
	CurrencyEUR     = "EUR"
	CurrencyCZK     = "CZK"
	CurrencyUnknown = "---"
)

// Payment is a single ledger entry.
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaymentID   int64           `gorm:"index" json:"payment_id"` // gateway-assigned, not unique
	PaymentDate time.Time       `json:"payment_date"`
	PaymentType PaymentType     `gorm:"type:varchar(50)" json:"payment_type"`
	Value       decimal.Decimal `gorm:"type:decimal(15,2)" json:"value"`
	Currency    string          `gorm:"type:varchar(8)" json:"currency"`
	User        string          `gorm:"column:user_name;type:varchar(255);index" json:"user"`

	ServerID  *uint    `gorm:"index" json:"server_id"`
	Server    *Server  `gorm:"foreignKey:ServerID" json:"server,omitempty"`
	ProductID *uint    `gorm:"index" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	MainInfo  string        `gorm:"type:text" json:"main_info"`
	OtherInfo string        `gorm:"type:text" json:"other_info"` // append-only annotation log
	Status    PaymentStatus `gorm:"type:varchar(50)" json:"status"`
	Activated bool          `gorm:"not null;default:false" json:"activated"`
}
