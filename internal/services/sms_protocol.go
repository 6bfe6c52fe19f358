package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fortexx_ledger/internal/models"
)

// Gateway acknowledgement prefixes. The billing gateway parses the text after
// the semicolon by fixed field width, so these must not change.
const (
	rejectionPrefix = "Zaslany kod neni platny;FREE"
	acceptedPrefix  = "Dekujeme za SMS;"
)

// chargeTokenCount is the minimum number of whitespace separated tokens in a
// charge SMS: two leading keywords, value, nickname, product code, server code.
const chargeTokenCount = 6

var (
	ErrMalformedSMS  = errors.New("malformed sms body")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Limits of the payments columns gateway text is stored in: user_name
// varchar(255), status varchar(50), value decimal(15,2).
const (
	MaxNicknameLength  = 255
	MaxStatusLength    = 50
	maxValueIntDigits  = 13
	maxValueFracDigits = 2
)

var chargeValuePattern = regexp.MustCompile(`^([0-9]+)(?:\.([0-9]+))?$`)

// GatewayMode says which kind of message a gateway call carries.
type GatewayMode int

const (
	GatewayModeInvalid GatewayMode = iota
	GatewayModeCharge
	GatewayModeReport
)

func (m GatewayMode) String() string {
	switch m {
	case GatewayModeCharge:
		return string(models.GatewayCallbackCharge)
	case GatewayModeReport:
		return string(models.GatewayCallbackReport)
	default:
		return string(models.GatewayCallbackInvalid)
	}
}

// GatewayRequest holds the scalar fields of one inbound gateway call. Every
// field is kept as text so that binding never fails; numbers are parsed by the
// mode that needs them.
type GatewayRequest struct {
	ID        string `query:"id" form:"id" json:"id"`
	SMS       string `query:"sms" form:"sms" json:"sms"`
	Shortcode string `query:"shortcode" form:"shortcode" json:"shortcode"`
	Timestamp string `query:"timestamp" form:"timestamp" json:"timestamp"`
	Country   string `query:"country" form:"country" json:"country"`
	Operator  string `query:"operator" form:"operator" json:"operator"`
	Phone     string `query:"phone" form:"phone" json:"phone"`
	Att       string `query:"att" form:"att" json:"att"`

	Request string `query:"request" form:"request" json:"request"`
	Status  string `query:"status" form:"status" json:"status"`
	Message string `query:"message" form:"message" json:"message"`
}

// Mode selects charge or report by which fields are populated.
func (r GatewayRequest) Mode() GatewayMode {
	switch {
	case strings.TrimSpace(r.SMS) != "" && strings.TrimSpace(r.Shortcode) != "":
		return GatewayModeCharge
	case strings.TrimSpace(r.Request) != "":
		return GatewayModeReport
	default:
		return GatewayModeInvalid
	}
}

// ChargeSMS is the positional content of a charge SMS body.
type ChargeSMS struct {
	Value       string
	Nickname    string
	ProductCode string
	ServerCode  string
}

// ParseChargeSMS splits the SMS body on whitespace and picks fields by position.
func ParseChargeSMS(text string) (ChargeSMS, error) {
	tokens := strings.Fields(text)
	if len(tokens) < chargeTokenCount {
		return ChargeSMS{}, fmt.Errorf("%w: %d tokens, need %d", ErrMalformedSMS, len(tokens), chargeTokenCount)
	}
	if n := utf8.RuneCountInString(tokens[3]); n > MaxNicknameLength {
		return ChargeSMS{}, fmt.Errorf("%w: nickname is %d characters, limit %d", ErrMalformedSMS, n, MaxNicknameLength)
	}
	return ChargeSMS{
		Value:       tokens[2],
		Nickname:    tokens[3],
		ProductCode: tokens[4],
		ServerCode:  tokens[5],
	}, nil
}

// rawValueToken returns the value token even when the body is too short to be
// a valid charge, so a rejection can still echo it.
func rawValueToken(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) > 2 {
		return tokens[2]
	}
	return ""
}

// ParseChargeValue parses the value token. Only plain digits with an optional
// fraction of at most two digits are accepted, and the value must fit
// decimal(15,2). Signs, exponents and bare fractions like ".5" are rejected
// because the token is echoed into the fixed-width acknowledgement.
func ParseChargeValue(raw string) (decimal.Decimal, error) {
	m := chargeValuePattern.FindStringSubmatch(raw)
	if m == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if intDigits := len(strings.TrimLeft(m[1], "0")); intDigits > maxValueIntDigits {
		return decimal.Zero, fmt.Errorf("%w: %q exceeds %d integer digits", ErrInvalidAmount, raw, maxValueIntDigits)
	}
	if len(m[2]) > maxValueFracDigits {
		return decimal.Zero, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, raw, maxValueFracDigits)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return v, nil
}

// ParseShortcode parses the numeric shortcode.
func ParseShortcode(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

// IsEURShortcode reports whether the shortcode is EUR denominated: exactly four
// decimal digits. Every other length is CZK.
func IsEURShortcode(shortcode int64) bool {
	return len(strconv.FormatInt(shortcode, 10)) == 4
}

// ShortcodeCurrency maps a shortcode to its currency code.
func ShortcodeCurrency(shortcode int64) string {
	if IsEURShortcode(shortcode) {
		return models.CurrencyEUR
	}
	return models.CurrencyCZK
}

// FormatGatewayAmount renders the value token in the gateway's fixed-width
// convention. EUR values shorter than two characters get one leading zero;
// both currencies are suffixed with "00".
func FormatGatewayAmount(raw string, eur bool) string {
	if eur && len(raw) < 2 {
		raw = "0" + raw
	}
	return raw + "00"
}

// RejectionText is the free-of-charge "invalid code" acknowledgement. EUR
// rejections carry no amount.
func RejectionText(shortcode int64, rawValue string) string {
	eur := IsEURShortcode(shortcode)
	suffix := ""
	if !eur {
		suffix = FormatGatewayAmount(rawValue, false)
	}
	return rejectionPrefix + strconv.FormatInt(shortcode, 10) + suffix
}

// AcceptedText is the "thank you" acknowledgement for a recorded charge.
func AcceptedText(shortcode int64, rawValue string) string {
	return acceptedPrefix + strconv.FormatInt(shortcode, 10) + FormatGatewayAmount(rawValue, IsEURShortcode(shortcode))
}

var gatewayTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102T150405",
	"20060102150405",
}

// ParseGatewayTimestamp is best effort: text in none of the known layouts
// yields the zero time.
func ParseGatewayTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range gatewayTimestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseOptionalID parses a best-effort gateway id; anything non-numeric is 0.
func parseOptionalID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// AppendAnnotation appends notes to an other-info log without touching what is
// already there.
func AppendAnnotation(log string, notes ...string) string {
	for _, note := range notes {
		if note == "" {
			continue
		}
		if log != "" {
			log += "; "
		}
		log += note
	}
	return log
}
