package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fortexx_ledger/internal/models"
)

var ErrNotFound = errors.New("record not found")

// MaxPageSize caps the show_num of a paged listing.
const MaxPageSize = 500

// ActivationOutcome is the result of an activation call. AlreadyActive is a
// separate outcome so callers can tell that the call changed nothing.
type ActivationOutcome int

const (
	ActivationNotFound ActivationOutcome = iota
	ActivationAlreadyActive
	ActivationActivated
)

func (o ActivationOutcome) String() string {
	switch o {
	case ActivationActivated:
		return "activated"
	case ActivationAlreadyActive:
		return "already active"
	default:
		return "not found"
	}
}

// ActivationResult carries the outcome and, unless not found, the payment as
// stored after the call.
type ActivationResult struct {
	Outcome ActivationOutcome
	Payment *models.Payment
}

// DeliveryReport is an asynchronous gateway report about a charge.
type DeliveryReport struct {
	PaymentID  int64 // external id of the original charge
	Status     string
	Message    string
	DeliveryID string
	Timestamp  string
}

// PaymentStore owns the canonical copy of every payment.
type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

func withCatalog(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Server").Preload("Product")
}

// LastPayments returns the n most recent payments, newest first.
func (s *PaymentStore) LastPayments(ctx context.Context, n int) ([]models.Payment, error) {
	var payments []models.Payment
	err := withCatalog(s.db.WithContext(ctx)).
		Order("id desc").
		Limit(n).
		Find(&payments).Error
	return payments, err
}

// PaymentsPage returns page (1-based) of size payments, newest first.
func (s *PaymentStore) PaymentsPage(ctx context.Context, size, page int) ([]models.Payment, error) {
	if size < 1 || page < 1 {
		return nil, fmt.Errorf("invalid page %d of size %d", page, size)
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	var payments []models.Payment
	err := withCatalog(s.db.WithContext(ctx)).
		Order("id desc").
		Offset(size * (page - 1)).
		Limit(size).
		Find(&payments).Error
	return payments, err
}

// PaymentsByUser returns every payment made under the nickname, newest first.
func (s *PaymentStore) PaymentsByUser(ctx context.Context, name string) ([]models.Payment, error) {
	var payments []models.Payment
	err := withCatalog(s.db.WithContext(ctx)).
		Where("user_name = ?", name).
		Order("id desc").
		Find(&payments).Error
	return payments, err
}

// PaymentByID looks a payment up by internal id.
func (s *PaymentStore) PaymentByID(ctx context.Context, id uint) (*models.Payment, error) {
	return paymentByID(withCatalog(s.db.WithContext(ctx)), id)
}

func paymentByID(tx *gorm.DB, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := tx.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// Create inserts a new payment. Server and Product are referenced through
// their ids only; the catalog rows are never written from here.
func (s *PaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(payment).Error
}

// Activate flips Activated from false to true exactly once. The conditional
// update makes concurrent calls race on the row itself: one sees a changed
// row, the others see AlreadyActive.
func (s *PaymentStore) Activate(ctx context.Context, id uint) (ActivationResult, error) {
	var result ActivationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND activated = ?", id, false).
			Update("activated", true)
		if res.Error != nil {
			return res.Error
		}

		payment, err := paymentByID(withCatalog(tx), id)
		if errors.Is(err, ErrNotFound) {
			result.Outcome = ActivationNotFound
			return nil
		}
		if err != nil {
			return err
		}

		result.Payment = payment
		if res.RowsAffected > 0 {
			result.Outcome = ActivationActivated
		} else {
			result.Outcome = ActivationAlreadyActive
		}
		return nil
	})
	if err != nil {
		return ActivationResult{}, err
	}
	return result, nil
}

// ApplyDeliveryReport reconciles a report with the most recent payment that
// carries its external id. It returns ErrNotFound, and writes nothing, unless
// that payment exists, came from the SMS charge path and is still awaiting its
// report.
func (s *PaymentStore) ApplyDeliveryReport(ctx context.Context, report DeliveryReport) (*models.Payment, error) {
	var updated *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_id = ?", report.PaymentID).
			Order("id desc").
			Take(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if payment.PaymentType != models.PaymentTypeSMS || payment.Status != models.StatusPaymentRequested {
			return ErrNotFound
		}

		otherInfo := AppendAnnotation(payment.OtherInfo, deliveryNotes(report)...)
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.StatusPaymentRequested).
			Updates(map[string]interface{}{
				"status":     models.PaymentStatus(report.Status),
				"other_info": otherInfo,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		updated, err = paymentByID(withCatalog(tx), payment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func deliveryNotes(report DeliveryReport) []string {
	var notes []string
	if strings.EqualFold(report.Status, string(models.StatusUndelivered)) {
		reason := report.Message
		if reason == "" {
			reason = "no reason given"
		}
		notes = append(notes, "Undelivered: "+reason)
	}
	notes = append(notes, fmt.Sprintf("Delivery %s at %s", orUnknown(report.DeliveryID), orUnknown(report.Timestamp)))
	return notes
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// RecordCallback journals a gateway call.
func (s *PaymentStore) RecordCallback(ctx context.Context, cb *models.GatewayCallback) error {
	return s.db.WithContext(ctx).Create(cb).Error
}
