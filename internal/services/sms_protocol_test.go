package services

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShortcodeCurrency(t *testing.T) {
	tests := []struct {
		name      string
		shortcode int64
		expected  string
	}{
		{name: "four digits is EUR", shortcode: 1234, expected: "EUR"},
		{name: "five digits is CZK", shortcode: 90206, expected: "CZK"},
		{name: "three digits is CZK", shortcode: 123, expected: "CZK"},
		{name: "six digits is CZK", shortcode: 902060, expected: "CZK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortcodeCurrency(tt.shortcode); got != tt.expected {
				t.Errorf("ShortcodeCurrency(%d) = %q; want %q", tt.shortcode, got, tt.expected)
			}
		})
	}
}

func TestParseChargeSMS(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected ChargeSMS
		wantErr  bool
	}{
		{
			name:     "six tokens",
			text:     "X Y 5 alice prod1 srv1",
			expected: ChargeSMS{Value: "5", Nickname: "alice", ProductCode: "prod1", ServerCode: "srv1"},
		},
		{
			name:     "extra whitespace and trailing tokens",
			text:     "  FX   PAY\t50 bob  vip  eu1 extra ",
			expected: ChargeSMS{Value: "50", Nickname: "bob", ProductCode: "vip", ServerCode: "eu1"},
		},
		{
			name:     "nickname at the column limit",
			text:     "X Y 5 " + strings.Repeat("n", MaxNicknameLength) + " prod1 srv1",
			expected: ChargeSMS{Value: "5", Nickname: strings.Repeat("n", MaxNicknameLength), ProductCode: "prod1", ServerCode: "srv1"},
		},
		{name: "five tokens", text: "X Y 5 alice prod1", wantErr: true},
		{name: "nickname over the column limit", text: "X Y 5 " + strings.Repeat("n", MaxNicknameLength+1) + " prod1 srv1", wantErr: true},
		{name: "multibyte nickname over the limit", text: "X Y 5 " + strings.Repeat("ž", MaxNicknameLength+1) + " prod1 srv1", wantErr: true},
		{name: "empty body", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChargeSMS(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedSMS) {
					t.Fatalf("ParseChargeSMS(%q) error = %v; want ErrMalformedSMS", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChargeSMS(%q) unexpected error: %v", tt.text, err)
			}
			if got != tt.expected {
				t.Errorf("ParseChargeSMS(%q) = %+v; want %+v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestParseChargeValue(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		wantErr  bool
	}{
		{raw: "5", expected: "5"},
		{raw: "0", expected: "0"},
		{raw: "12.5", expected: "12.5"},
		{raw: "5.55", expected: "5.55"},
		{raw: "0000000000000012", expected: "12"},
		{raw: "9999999999999.99", expected: "9999999999999.99"},
		{raw: "-1", wantErr: true},
		{raw: "+5", wantErr: true},
		{raw: "1e2", wantErr: true},
		{raw: ".5", wantErr: true},
		{raw: "5.", wantErr: true},
		{raw: "5.555", wantErr: true},
		{raw: "9999999999999999", wantErr: true},
		{raw: "5 ", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseChargeValue(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseChargeValue(%q) error = %v; want ErrInvalidAmount", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChargeValue(%q) unexpected error: %v", tt.raw, err)
			}
			if got.String() != tt.expected {
				t.Errorf("ParseChargeValue(%q) = %s; want %s", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestGatewayTexts(t *testing.T) {
	tests := []struct {
		name      string
		shortcode int64
		raw       string
		accepted  string
		rejected  string
	}{
		{
			name:      "EUR single digit is padded",
			shortcode: 1234,
			raw:       "5",
			accepted:  "Dekujeme za SMS;1234" + "0500",
			rejected:  "Zaslany kod neni platny;FREE1234",
		},
		{
			name:      "EUR two digits",
			shortcode: 1234,
			raw:       "20",
			accepted:  "Dekujeme za SMS;12342000",
			rejected:  "Zaslany kod neni platny;FREE1234",
		},
		{
			name:      "CZK single digit is not padded",
			shortcode: 90206,
			raw:       "5",
			accepted:  "Dekujeme za SMS;90206500",
			rejected:  "Zaslany kod neni platny;FREE90206500",
		},
		{
			name:      "CZK with missing value",
			shortcode: 90206,
			raw:       "",
			accepted:  "Dekujeme za SMS;9020600",
			rejected:  "Zaslany kod neni platny;FREE9020600",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AcceptedText(tt.shortcode, tt.raw); got != tt.accepted {
				t.Errorf("AcceptedText(%d, %q) = %q; want %q", tt.shortcode, tt.raw, got, tt.accepted)
			}
			if got := RejectionText(tt.shortcode, tt.raw); got != tt.rejected {
				t.Errorf("RejectionText(%d, %q) = %q; want %q", tt.shortcode, tt.raw, got, tt.rejected)
			}
		})
	}
}

func TestGatewayRequestMode(t *testing.T) {
	tests := []struct {
		name     string
		req      GatewayRequest
		expected GatewayMode
	}{
		{name: "charge", req: GatewayRequest{SMS: "X Y 5 a b c", Shortcode: "1234"}, expected: GatewayModeCharge},
		{name: "charge wins over report", req: GatewayRequest{SMS: "X", Shortcode: "1234", Request: "9"}, expected: GatewayModeCharge},
		{name: "report", req: GatewayRequest{Request: "9", Status: "DELIVERED"}, expected: GatewayModeReport},
		{name: "sms without shortcode", req: GatewayRequest{SMS: "X Y 5 a b c"}, expected: GatewayModeInvalid},
		{name: "blank", req: GatewayRequest{SMS: " ", Request: " "}, expected: GatewayModeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Mode(); got != tt.expected {
				t.Errorf("Mode() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestParseGatewayTimestamp(t *testing.T) {
	want := time.Date(2026, 5, 4, 13, 2, 1, 0, time.UTC)
	tests := []struct {
		raw      string
		expected time.Time
	}{
		{raw: "2026-05-04T13:02:01Z", expected: want},
		{raw: "2026-05-04T13:02:01", expected: want},
		{raw: "2026-05-04 13:02:01", expected: want},
		{raw: "20260504T130201", expected: want},
		{raw: "20260504130201", expected: want},
		{raw: "yesterday", expected: time.Time{}},
		{raw: "", expected: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseGatewayTimestamp(tt.raw); !got.Equal(tt.expected) {
				t.Errorf("ParseGatewayTimestamp(%q) = %v; want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestAppendAnnotationKeepsPrefix(t *testing.T) {
	log := ""
	notes := []string{"Operator: T-Mobile", "", "Delivery 1 at ?", "Undelivered: timeout"}
	for _, note := range notes {
		next := AppendAnnotation(log, note)
		if !strings.HasPrefix(next, log) {
			t.Fatalf("AppendAnnotation dropped existing text: %q -> %q", log, next)
		}
		if len(next) < len(log) {
			t.Fatalf("AppendAnnotation shrank the log: %q -> %q", log, next)
		}
		log = next
	}

	expected := "Operator: T-Mobile; Delivery 1 at ?; Undelivered: timeout"
	if log != expected {
		t.Errorf("log = %q; want %q", log, expected)
	}
}
