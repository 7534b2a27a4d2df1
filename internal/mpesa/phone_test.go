package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodipay/kodipay/internal/payment"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "LocalSafaricom", phone: "0712345678", want: "254712345678"},
		{name: "LocalAirtel", phone: "0110345678", want: "254110345678"},
		{name: "International", phone: "254712345678", want: "254712345678"},
		{name: "InternationalWithPlus", phone: "+254712345678", want: "254712345678"},
		{name: "SpacesAndDashes", phone: "0712 345-678", want: "254712345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.phone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhone_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		phone string
	}{
		{name: "Empty", phone: ""},
		{name: "TooShort", phone: "07123"},
		{name: "TooLong", phone: "07123456789"},
		{name: "Landline", phone: "0201234567"},
		{name: "NotANumber", phone: "not-a-phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizePhone(tt.phone)
			assert.ErrorIs(t, err, payment.ErrInvalidPhone)
		})
	}
}

func TestSTKPassword(t *testing.T) {
	// base64("174379" + "passkey" + "20250601120000")
	assert.Equal(t, "MTc0Mzc5cGFzc2tleTIwMjUwNjAxMTIwMDAw", stkPassword("174379", "passkey", "20250601120000"))
}
