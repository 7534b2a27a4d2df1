package mpesa

import (
	"encoding/json"
	"fmt"

	"github.com/kodipay/kodipay/internal/payment"
)

// CallbackPayload is the Daraja STK push result, delivered asynchronously to
// the configured callback URL.
type CallbackPayload struct {
	Body struct {
		STKCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []callbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type callbackItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// ParseCallback normalizes a raw callback body into the outcome vocabulary
// the reconciliation engine consumes. ResultCode 0 is success; the receipt
// number is carried so the provisional correlation key can be rotated to it.
func ParseCallback(body []byte) (payment.Outcome, error) {
	var cb CallbackPayload
	if err := json.Unmarshal(body, &cb); err != nil {
		return payment.Outcome{}, fmt.Errorf("decoding stk callback: %w", err)
	}

	stk := cb.Body.STKCallback
	if stk.CheckoutRequestID == "" {
		return payment.Outcome{}, fmt.Errorf("stk callback missing CheckoutRequestID")
	}

	out := payment.Outcome{
		CorrelationKey: stk.CheckoutRequestID,
		Success:        stk.ResultCode == 0,
	}

	if !out.Success {
		out.Reason = stk.ResultDesc
		return out, nil
	}

	for _, item := range stk.CallbackMetadata.Item {
		if item.Name != "MpesaReceiptNumber" {
			continue
		}

		var receipt string
		if err := json.Unmarshal(item.Value, &receipt); err != nil {
			return payment.Outcome{}, fmt.Errorf("decoding receipt number: %w", err)
		}

		out.ReceiptRef = receipt

		break
	}

	return out, nil
}
