package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"fundflow-service/internal/consumers"
	"fundflow-service/internal/services"

	"github.com/hibiken/asynq"
)

type Worker struct {
	Processor *consumers.PayoutProcessor
}

func NewWorker(processor *consumers.PayoutProcessor) *Worker {
	return &Worker{
		Processor: processor,
	}
}

func (w *Worker) HandlePayout(ctx context.Context, t *asynq.Task) error {
	var p consumers.PayoutDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return w.Processor.ProcessPayout(p)
}

func StartWorker(redisOpt asynq.RedisClientOpt, processor *consumers.PayoutProcessor) {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// Specify how many concurrent workers to use
			Concurrency: 10,
			// Payouts go through critical; everything else takes the default lane.
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			// Once retries run out the withdrawal is failed so the
			// reservation releases instead of holding funds forever.
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				if task.Type() != services.TypePayout {
					return
				}
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
					var p consumers.PayoutDTO
					if jsonErr := json.Unmarshal(task.Payload(), &p); jsonErr != nil {
						log.Printf("Cannot decode exhausted payout task: %v", jsonErr)
						return
					}
					processor.FailPayout(p, err.Error())
				}
			}),
		},
	)

	worker := NewWorker(processor)
	mux := asynq.NewServeMux()

	mux.HandleFunc(services.TypePayout, worker.HandlePayout)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
