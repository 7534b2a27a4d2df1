package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/fraud"
)

// Method represents how a payment is made.
type Method string

const (
	MethodMpesa Method = "mpesa"
	MethodBank  Method = "bank"
)

// Status represents the lifecycle state of a payment. A payment is created
// pending and settles into exactly one of the terminal states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is permitted from the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	ErrNotFound = errors.New("payment not found")

	// ErrUnknownPayment is returned when a gateway outcome references a
	// correlation key the system never issued. It is logged, never shown
	// to a user, and never causes a record to be synthesized.
	ErrUnknownPayment = errors.New("unknown payment reference")

	// ErrConflict means a concurrent writer won an atomic update race.
	// Callers should re-fetch and decide, not blindly retry the same write.
	ErrConflict = errors.New("payment update conflict")

	// ErrGatewayUnavailable covers token exchange and push request failures
	// upstream. Retryable by the caller with backoff.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrStillProcessing means the gateway has no final result for the push
	// yet. The payment must stay pending; settling on it would turn an
	// in-flight payment into a terminal failure.
	ErrStillProcessing = errors.New("payment still processing")

	ErrInvalidPhone = errors.New("invalid phone number")
)

// FraudRejectedError is returned by Initiate when the fraud scorer rejects
// the request outright. The assessment is carried so callers can surface the
// flags explaining the rejection.
type FraudRejectedError struct {
	Assessment fraud.Assessment
}

func (e *FraudRejectedError) Error() string {
	return fmt.Sprintf("payment rejected by fraud screening (score %d): %s",
		e.Assessment.RiskScore, strings.Join(e.Assessment.Flags, "; "))
}

// Payment represents a rent payment tracked against the external gateway.
type Payment struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	UnitID   uuid.UUID

	// Amount in whole Kenyan shillings. The gateway only accepts integer
	// amounts, and fraud thresholds are shilling-denominated.
	Amount int64

	Method Method
	Status Status

	// TransactionRef is the current gateway reference: the provisional
	// CheckoutRequestID at initiation, replaced by the receipt number once
	// the payment completes. Unique across payments.
	TransactionRef string

	// CorrelationKey is the CheckoutRequestID the gateway was issued at
	// initiation. Unlike TransactionRef it never changes, so redelivered
	// callbacks still resolve after settlement rotates the reference.
	CorrelationKey string

	FraudStatus fraud.Status
	FraudScore  int
	FraudFlags  []string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Handle is what the gateway returns for a successfully submitted intent.
type Handle struct {
	CorrelationKey string
}

// Outcome is the normalized result of a gateway callback or a pull-based
// confirmation. Both sources produce the same shape so reconciliation never
// special-cases where an outcome came from.
type Outcome struct {
	CorrelationKey string
	Success        bool
	ReceiptRef     string
	Reason         string
}
