package tasks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fortexx_ledger/internal/models"
	"fortexx_ledger/internal/services"
)

const (
	colorSMS       = 0x2ecc71
	colorInformant = 0xe67e22
	colorDigest    = 0x3498db
)

// AnnouncePaymentArgs defines the arguments for an announce_payment task
type AnnouncePaymentArgs struct {
	PaymentID uint `json:"payment_id"`
}

// AnnouncePaymentTaskDef posts a newly created payment to Discord.
type AnnouncePaymentTaskDef struct {
	Discord *services.DiscordService
}

// TaskID returns the unique identifier for this task
func (t *AnnouncePaymentTaskDef) TaskID() string {
	return "announce_payment"
}

// CreateTask builds a ScheduledTask record for this task
func (t *AnnouncePaymentTaskDef) CreateTask(paymentID uint, due time.Time) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), AnnouncePaymentArgs{PaymentID: paymentID}, due, nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution loads the payment and sends the announcement
func (t *AnnouncePaymentTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args AnnouncePaymentArgs
	if err := decodeArgs(task.Arguments, &args); err != nil {
		return nil, err
	}
	if args.PaymentID == 0 {
		return nil, fmt.Errorf("payment_id not provided or invalid")
	}

	payment, err := services.NewPaymentStore(db).PaymentByID(ctx, args.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %d: %w", args.PaymentID, err)
	}

	if err := t.Discord.Send(ctx, PaymentAnnouncement(payment)); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":     "success",
		"payment_id": payment.ID,
	}, nil
}

// PaymentAnnouncement renders a payment as a Discord embed.
func PaymentAnnouncement(p *models.Payment) services.DiscordMessage {
	color := colorInformant
	if p.PaymentType == models.PaymentTypeSMS {
		color = colorSMS
	}

	serverName, productName := "?", "?"
	if p.Server != nil {
		serverName = p.Server.Name
	}
	if p.Product != nil {
		productName = p.Product.Name
	}

	return services.DiscordMessage{
		Embeds: []services.DiscordEmbed{{
			Title:       fmt.Sprintf("New %s payment #%d", p.PaymentType, p.ID),
			Description: fmt.Sprintf("%s paid %s %s", p.User, p.Value.StringFixed(2), p.Currency),
			Color:       color,
			Fields: []services.DiscordEmbedField{
				{Name: "Server", Value: serverName, Inline: true},
				{Name: "Product", Value: productName, Inline: true},
				{Name: "Status", Value: string(p.Status), Inline: true},
			},
		}},
	}
}

// PaymentDigestTaskDef posts the pending (not yet activated) totals per currency.
type PaymentDigestTaskDef struct {
	Discord *services.DiscordService
}

// TaskID returns the unique identifier for this task
func (t *PaymentDigestTaskDef) TaskID() string {
	return "payment_digest"
}

// CreateTask builds a recurring ScheduledTask; rule is an RFC 5545 RRULE.
func (t *PaymentDigestTaskDef) CreateTask(due time.Time, rule string) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), map[string]interface{}{}, due, &rule, models.ScheduledTaskTypeRecurring, 3)
}

// PendingTotal is the count and sum of not yet activated payments in one currency.
type PendingTotal struct {
	Currency string
	Count    int64
	Total    decimal.Decimal
}

// PendingTotals aggregates the payments that are not activated yet.
func PendingTotals(ctx context.Context, db *gorm.DB) ([]PendingTotal, error) {
	var totals []PendingTotal
	err := db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("currency, count(*) as count, coalesce(sum(value), 0) as total").
		Where("activated = ?", false).
		Group("currency").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })
	return totals, nil
}

// HandleExecution aggregates and sends the digest
func (t *PaymentDigestTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	totals, err := PendingTotals(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payments: %w", err)
	}

	var count int64
	fields := make([]services.DiscordEmbedField, 0, len(totals))
	for _, total := range totals {
		count += total.Count
		fields = append(fields, services.DiscordEmbedField{
			Name:   total.Currency,
			Value:  fmt.Sprintf("%d payments, %s", total.Count, total.Total.StringFixed(2)),
			Inline: true,
		})
	}

	if count == 0 {
		return map[string]interface{}{"status": "skipped", "pending": 0}, nil
	}

	msg := services.DiscordMessage{
		Embeds: []services.DiscordEmbed{{
			Title:       "Payments awaiting activation",
			Description: fmt.Sprintf("%d payments are not activated yet", count),
			Color:       colorDigest,
			Fields:      fields,
		}},
	}
	if err := t.Discord.Send(ctx, msg); err != nil {
		return nil, err
	}

	return map[string]interface{}{"status": "success", "pending": count}, nil
}
