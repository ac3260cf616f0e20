package payment

import (
	"context"
	"math/rand"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

type Outcome struct {
	Approved bool
	Reason   string
}

// Gateway decides whether a simulated charge goes through.
type Gateway interface {
	Charge(ctx context.Context, order *domain.Order, method domain.PaymentMethod) Outcome
}

type ApproveAll struct{}

func (ApproveAll) Charge(context.Context, *domain.Order, domain.PaymentMethod) Outcome {
	return Outcome{Approved: true}
}

var declineReasons = []string{
	"insufficient balance",
	"payment expired",
	"issuer unavailable",
	"suspected fraud",
	"unknown reason",
}

// RandomGateway approves SuccessRate percent of charges.
type RandomGateway struct {
	SuccessRate int
	intn        func(n int) int
}

func NewRandomGateway(successRate int) *RandomGateway {
	return &RandomGateway{SuccessRate: successRate, intn: rand.Intn}
}

func (g *RandomGateway) Charge(context.Context, *domain.Order, domain.PaymentMethod) Outcome {
	return calcOutcome(g.intn(100), g.SuccessRate)
}

func calcOutcome(roll, successRate int) Outcome {
	if roll < successRate {
		return Outcome{Approved: true}
	}
	return Outcome{Reason: declineReasons[(roll-successRate)%len(declineReasons)]}
}
