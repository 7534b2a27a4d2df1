package mpesa

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/kodipay/kodipay/internal/payment"
)

// Daraja only accepts Kenyan mobile numbers in international form without
// the plus sign: 2547XXXXXXXX or 2541XXXXXXXX.
var msisdnPattern = regexp.MustCompile(`^254(7|1)\d{8}$`)

// NormalizePhone converts local formats (07..., 01..., +254...) to the
// canonical MSISDN. Numbers that cannot be normalized fail with
// payment.ErrInvalidPhone before anything is submitted upstream.
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")

	switch {
	case strings.HasPrefix(p, "+254"):
		p = p[1:]
	case strings.HasPrefix(p, "0"):
		p = "254" + p[1:]
	}

	if !msisdnPattern.MatchString(p) {
		return "", fmt.Errorf("normalizing %q: %w", phone, payment.ErrInvalidPhone)
	}

	return p, nil
}

// stkPassword is the Daraja request password: base64(shortcode+passkey+timestamp).
func stkPassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}
