package checkout

type Step string

const (
	StepCartReview     Step = "CART_REVIEW"
	StepDelivery       Step = "DELIVERY"
	StepPayment        Step = "PAYMENT"
	StepPaymentPending Step = "PAYMENT_PENDING"
	StepDone           Step = "DONE"
)

var transitions = map[Step][]Step{
	StepCartReview:     {StepDelivery},
	StepDelivery:       {StepCartReview, StepPayment},
	StepPayment:        {StepPaymentPending, StepDone},
	StepPaymentPending: {StepDone},
}

// CanTransitionTo reports whether the flow may move from s to next.
func (s Step) CanTransitionTo(next Step) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Step) IsTerminal() bool {
	return s == StepDone
}

// Index is the position shown in the step indicator: 0 cart review,
// 1 delivery, 2 payment. The pending and done steps stay on payment.
func (s Step) Index() int {
	switch s {
	case StepCartReview:
		return 0
	case StepDelivery:
		return 1
	default:
		return 2
	}
}

// String representation (for logging)
func (s Step) String() string {
	return string(s)
}
