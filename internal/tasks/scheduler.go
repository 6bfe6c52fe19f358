package tasks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fortexx_ledger/internal/models"
)

// Scheduler queues an announce_payment task for every new payment. It
// satisfies services.PaymentAnnouncer.
type Scheduler struct {
	db       *gorm.DB
	announce *AnnouncePaymentTaskDef
	now      func() time.Time
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{db: db, announce: &AnnouncePaymentTaskDef{}, now: time.Now}
}

func (s *Scheduler) AnnouncePayment(ctx context.Context, payment *models.Payment) error {
	task, err := s.announce.CreateTask(payment.ID, s.now())
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(task).Error
}
