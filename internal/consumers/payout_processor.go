package consumers

import (
	"log"

	"fundflow-service/internal/services"
)

// PayoutProcessor executes approved withdrawals on the worker side.
type PayoutProcessor struct {
	Withdrawals *services.WithdrawalService
}

func NewPayoutProcessor(withdrawals *services.WithdrawalService) *PayoutProcessor {
	return &PayoutProcessor{Withdrawals: withdrawals}
}

type PayoutDTO struct {
	WithdrawalId string `json:"withdrawalId"`
}

// ProcessPayout fires the gateway transfer for one withdrawal. Errors are
// returned so the queue retries with backoff; the service's guarded status
// flip keeps a retried task from double-firing the transfer.
func (p *PayoutProcessor) ProcessPayout(data PayoutDTO) error {
	log.Printf("Processing payout for withdrawal %s", data.WithdrawalId)
	return p.Withdrawals.ExecutePayout(data.WithdrawalId)
}

// FailPayout is the dead-letter path once retries are exhausted.
func (p *PayoutProcessor) FailPayout(data PayoutDTO, reason string) {
	log.Printf("Payout for withdrawal %s exhausted retries: %s", data.WithdrawalId, reason)
	if err := p.Withdrawals.MarkFailed(data.WithdrawalId, reason); err != nil {
		log.Printf("Failed to mark withdrawal %s as failed: %v", data.WithdrawalId, err)
	}
}
