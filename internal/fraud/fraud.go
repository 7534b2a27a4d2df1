package fraud

// Status is the outcome of a fraud assessment.
type Status string

const (
	StatusApproved Status = "approved"
	StatusReview   Status = "review"
	StatusRejected Status = "rejected"
)

// Assessment is the computed risk classification for a payment request. It is
// attached to the payment record at creation time, not persisted on its own.
type Assessment struct {
	RiskScore int
	Flags     []string
	Status    Status
}
