package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	"fortexx_ledger/internal/models"
)

var ErrBadGatewayRequest = errors.New("bad gateway request")

// ProductLookup resolves the compound product/server key of a charge SMS.
type ProductLookup interface {
	Lookup(ctx context.Context, productCode, serverCode string) (*models.Product, error)
}

// PaymentAnnouncer is told about every newly created payment.
type PaymentAnnouncer interface {
	AnnouncePayment(ctx context.Context, payment *models.Payment) error
}

// GatewayResult is the outcome of one gateway call. For charges Text is the
// acknowledgement to return verbatim; Accepted tells success from rejection.
type GatewayResult struct {
	Mode     GatewayMode
	Text     string
	Accepted bool
	Payment  *models.Payment
}

// SMSGateway handles the inbound calls of the SMS billing gateway.
type SMSGateway struct {
	store     *PaymentStore
	catalog   ProductLookup
	announcer PaymentAnnouncer // optional
	logger    *slog.Logger
}

func NewSMSGateway(store *PaymentStore, catalog ProductLookup, announcer PaymentAnnouncer, logger *slog.Logger) *SMSGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMSGateway{
		store:     store,
		catalog:   catalog,
		announcer: announcer,
		logger:    logger,
	}
}

// Handle dispatches a call by mode. A charge that fails validation is not an
// error: the result carries the rejection text. A report that matches no
// eligible payment returns ErrNotFound. A call that is neither returns
// ErrBadGatewayRequest.
func (g *SMSGateway) Handle(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	mode := req.Mode()

	var (
		result GatewayResult
		err    error
	)
	switch mode {
	case GatewayModeCharge:
		result, err = g.charge(ctx, req)
	case GatewayModeReport:
		result, err = g.report(ctx, req)
	default:
		err = fmt.Errorf("%w: neither sms and shortcode nor request given", ErrBadGatewayRequest)
	}
	result.Mode = mode

	g.journal(ctx, mode, req, result, err)
	return result, err
}

func (g *SMSGateway) charge(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	shortcode, err := ParseShortcode(req.Shortcode)
	if err != nil || shortcode < 0 {
		return GatewayResult{}, fmt.Errorf("%w: shortcode %q", ErrBadGatewayRequest, req.Shortcode)
	}

	reject := func(reason error) (GatewayResult, error) {
		g.logger.Info("charge rejected", "shortcode", shortcode, "reason", reason)
		return GatewayResult{Text: RejectionText(shortcode, rawValueToken(req.SMS))}, nil
	}

	sms, err := ParseChargeSMS(req.SMS)
	if err != nil {
		return reject(err)
	}
	value, err := ParseChargeValue(sms.Value)
	if err != nil {
		return reject(err)
	}
	product, err := g.catalog.Lookup(ctx, sms.ProductCode, sms.ServerCode)
	if errors.Is(err, ErrCatalogNoMatch) {
		return reject(err)
	}
	if err != nil {
		return GatewayResult{}, err
	}

	serverID := product.GameServerID
	productID := product.ID
	payment := &models.Payment{
		PaymentID:   parseOptionalID(req.ID),
		PaymentDate: ParseGatewayTimestamp(req.Timestamp),
		PaymentType: models.PaymentTypeSMS,
		Value:       value,
		Currency:    ShortcodeCurrency(shortcode),
		User:        sms.Nickname,
		ServerID:    &serverID,
		ProductID:   &productID,
		MainInfo:    fmt.Sprintf("SMS: %s; Country: %s; Shortcode: %d", req.SMS, req.Country, shortcode),
		OtherInfo:   chargeOtherInfo(req),
		Status:      models.StatusPaymentRequested,
		Activated:   false,
	}
	if err := g.store.Create(ctx, payment); err != nil {
		return GatewayResult{}, fmt.Errorf("failed to record charge: %w", err)
	}
	payment.Product = product
	payment.Server = product.GameServer

	g.announce(ctx, payment)

	return GatewayResult{
		Text:     AcceptedText(shortcode, sms.Value),
		Accepted: true,
		Payment:  payment,
	}, nil
}

func chargeOtherInfo(req GatewayRequest) string {
	notes := []string{"Operator: " + req.Operator, "Phone: " + req.Phone}
	if req.Att != "" {
		notes = append(notes, "Attempt: "+req.Att)
	}
	return AppendAnnotation("", notes...)
}

func (g *SMSGateway) report(ctx context.Context, req GatewayRequest) (GatewayResult, error) {
	paymentID, err := strconv.ParseInt(strings.TrimSpace(req.Request), 10, 64)
	if err != nil {
		return GatewayResult{}, fmt.Errorf("%w: request %q", ErrBadGatewayRequest, req.Request)
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		return GatewayResult{}, fmt.Errorf("%w: report without status", ErrBadGatewayRequest)
	}
	if n := utf8.RuneCountInString(status); n > MaxStatusLength {
		return GatewayResult{}, fmt.Errorf("%w: status is %d characters, limit %d", ErrBadGatewayRequest, n, MaxStatusLength)
	}

	payment, err := g.store.ApplyDeliveryReport(ctx, DeliveryReport{
		PaymentID:  paymentID,
		Status:     status,
		Message:    req.Message,
		DeliveryID: req.ID,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		return GatewayResult{}, err
	}
	return GatewayResult{Payment: payment}, nil
}

func (g *SMSGateway) announce(ctx context.Context, payment *models.Payment) {
	if g.announcer == nil {
		return
	}
	if err := g.announcer.AnnouncePayment(ctx, payment); err != nil {
		g.logger.Warn("failed to announce payment", "payment", payment.ID, "error", err)
	}
}

func (g *SMSGateway) journal(ctx context.Context, mode GatewayMode, req GatewayRequest, result GatewayResult, callErr error) {
	metadata, err := json.Marshal(req)
	if err != nil {
		g.logger.Warn("failed to encode gateway call", "error", err)
		return
	}

	var outcome string
	switch {
	case callErr != nil:
		outcome = "error: " + callErr.Error()
	case mode == GatewayModeCharge && result.Accepted:
		outcome = "accepted"
	case mode == GatewayModeCharge:
		outcome = "rejected"
	default:
		outcome = "applied"
	}
	if len(outcome) > 255 {
		outcome = outcome[:255]
	}

	paymentID := parseOptionalID(req.ID)
	if mode == GatewayModeReport {
		paymentID = parseOptionalID(req.Request)
	}

	cb := &models.GatewayCallback{
		Kind:      models.GatewayCallbackKind(mode.String()),
		PaymentID: paymentID,
		Metadata:  datatypes.JSON(metadata),
		Outcome:   outcome,
	}
	if err := g.store.RecordCallback(ctx, cb); err != nil {
		g.logger.Warn("failed to journal gateway call", "kind", cb.Kind, "error", err)
	}
}
