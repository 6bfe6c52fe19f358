package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fortexx_ledger/internal/models"
)

var validate = validator.New()

// InformantReport is an out-of-band payment report entered by an operator.
type InformantReport struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname" validate:"required,max=255"`
	Country   string `json:"country" validate:"max=64"`
	Type      string `json:"type" validate:"required,max=50"`
	Info      string `json:"info"`
	ProductID *uint  `json:"product_id"`
}

// InformantService records informant reports as payments awaiting
// confirmation. It never goes through the SMS protocol.
type InformantService struct {
	store     *PaymentStore
	catalog   *CatalogService
	announcer PaymentAnnouncer // optional
	logger    *slog.Logger
	now       func() time.Time
}

func NewInformantService(store *PaymentStore, catalog *CatalogService, announcer PaymentAnnouncer, logger *slog.Logger) *InformantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InformantService{
		store:     store,
		catalog:   catalog,
		announcer: announcer,
		logger:    logger,
		now:       time.Now,
	}
}

// Report creates the payment. An unknown product id leaves the payment without
// server and product rather than failing.
func (s *InformantService) Report(ctx context.Context, report InformantReport) (*models.Payment, error) {
	if err := validate.Struct(report); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		PaymentID:   report.ID,
		PaymentDate: s.now(),
		PaymentType: models.PaymentType(report.Type),
		Value:       decimal.Zero,
		Currency:    models.CurrencyUnknown,
		User:        report.Nickname,
		MainInfo:    "Country: " + report.Country,
		OtherInfo:   report.Info,
		Status:      models.StatusRequiresConfirmation,
		Activated:   false,
	}

	if report.ProductID != nil {
		product, err := s.catalog.ProductByID(ctx, *report.ProductID)
		switch {
		case errors.Is(err, ErrNotFound):
			s.logger.Info("informant product not found", "product", *report.ProductID)
		case err != nil:
			return nil, err
		default:
			serverID := product.GameServerID
			productID := product.ID
			payment.ServerID = &serverID
			payment.ProductID = &productID
		}
	}

	if err := s.store.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record informant report: %w", err)
	}

	if s.announcer != nil {
		if err := s.announcer.AnnouncePayment(ctx, payment); err != nil {
			s.logger.Warn("failed to announce payment", "payment", payment.ID, "error", err)
		}
	}

	return s.store.PaymentByID(ctx, payment.ID)
}
