package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fortexx_ledger/internal/models"
)

const unknownName = "?"

// RequestValidator plugs validator/v10 into echo.Context.Validate.
type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// PaymentDTO is the API projection of a payment.
type PaymentDTO struct {
	ID          uint            `json:"id"`
	PaymentID   int64           `json:"payment_id"`
	PaymentDate time.Time       `json:"payment_date"`
	PaymentType string          `json:"payment_type"`
	Value       decimal.Decimal `json:"value"`
	Currency    string          `json:"currency"`
	User        string          `json:"user"`
	ServerID    *uint           `json:"server_id"`
	ServerName  string          `json:"server_name"`
	ProductID   *uint           `json:"product_id"`
	ProductName string          `json:"product_name"`
	MainInfo    string          `json:"main_info"`
	OtherInfo   string          `json:"other_info"`
	Status      string          `json:"status"`
	Activated   bool            `json:"activated"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewPaymentDTO(p *models.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:          p.ID,
		PaymentID:   p.PaymentID,
		PaymentDate: p.PaymentDate,
		PaymentType: string(p.PaymentType),
		Value:       p.Value,
		Currency:    p.Currency,
		User:        p.User,
		ServerID:    p.ServerID,
		ServerName:  unknownName,
		ProductID:   p.ProductID,
		ProductName: unknownName,
		MainInfo:    p.MainInfo,
		OtherInfo:   p.OtherInfo,
		Status:      string(p.Status),
		Activated:   p.Activated,
		CreatedAt:   p.CreatedAt,
	}
	if p.Server != nil {
		dto.ServerName = p.Server.Name
	}
	if p.Product != nil {
		dto.ProductName = p.Product.Name
	}
	return dto
}

func NewPaymentDTOs(payments []models.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, 0, len(payments))
	for i := range payments {
		dtos = append(dtos, NewPaymentDTO(&payments[i]))
	}
	return dtos
}

// InformantRequest is the body of POST /payment/:key/informant.
type InformantRequest struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname" validate:"required,max=255"`
	Country   string `json:"country" validate:"max=64"`
	Type      string `json:"type" validate:"required,max=50"`
	Info      string `json:"info"`
	ProductID *uint  `json:"product_id"`
}

// ServerRequest is the body of the server create and update routes.
type ServerRequest struct {
	ID          uint   `json:"id"`
	Name        string `json:"name" validate:"required,max=255"`
	CodeName    string `json:"code_name" validate:"required,max=64"`
	Game        string `json:"game" validate:"max=255"`
	IconURL     string `json:"icon_url" validate:"omitempty,url,max=512"`
	Information string `json:"information"`
}

func (r ServerRequest) model() *models.Server {
	return &models.Server{
		ID:          r.ID,
		Name:        r.Name,
		CodeName:    r.CodeName,
		Game:        r.Game,
		IconURL:     r.IconURL,
		Information: r.Information,
	}
}

// ProductRequest is the body of the product create and update routes.
type ProductRequest struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name" validate:"required,max=255"`
	CodeName     string          `json:"code_name" validate:"required,max=64"`
	PriceEur     decimal.Decimal `json:"price_eur"`
	PriceCzk     decimal.Decimal `json:"price_czk"`
	GameServerID uint            `json:"game_server_id" validate:"required"`
	Information  string          `json:"information"`
}

func (r ProductRequest) model() *models.Product {
	return &models.Product{
		ID:           r.ID,
		Name:         r.Name,
		CodeName:     r.CodeName,
		PriceEur:     r.PriceEur,
		PriceCzk:     r.PriceCzk,
		GameServerID: r.GameServerID,
		Information:  r.Information,
	}
}
