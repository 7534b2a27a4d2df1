package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		body := []byte(`{
			"Body": {
				"stkCallback": {
					"MerchantRequestID": "29115-34620561-1",
					"CheckoutRequestID": "ws_CO_191220191020363925",
					"ResultCode": 0,
					"ResultDesc": "The service request is processed successfully.",
					"CallbackMetadata": {
						"Item": [
							{"Name": "Amount", "Value": 5000.00},
							{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
							{"Name": "TransactionDate", "Value": 20191219102115},
							{"Name": "PhoneNumber", "Value": 254712345678}
						]
					}
				}
			}
		}`)

		out, err := ParseCallback(body)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Equal(t, "ws_CO_191220191020363925", out.CorrelationKey)
		assert.Equal(t, "NLJ7RT61SV", out.ReceiptRef)
	})

	t.Run("Cancelled", func(t *testing.T) {
		body := []byte(`{
			"Body": {
				"stkCallback": {
					"MerchantRequestID": "29115-34620561-1",
					"CheckoutRequestID": "ws_CO_191220191020363925",
					"ResultCode": 1032,
					"ResultDesc": "Request cancelled by user"
				}
			}
		}`)

		out, err := ParseCallback(body)
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "ws_CO_191220191020363925", out.CorrelationKey)
		assert.Empty(t, out.ReceiptRef)
		assert.Equal(t, "Request cancelled by user", out.Reason)
	})

	t.Run("MissingCheckoutRequestID", func(t *testing.T) {
		_, err := ParseCallback([]byte(`{"Body": {"stkCallback": {"ResultCode": 0}}}`))
		assert.Error(t, err)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := ParseCallback([]byte(`{"Body": `))
		assert.Error(t, err)
	})
}
