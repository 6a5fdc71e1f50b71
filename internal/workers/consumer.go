package workers

import (
	"context"

	"github.com/benvon/napoleon/internal/queue"
	"go.uber.org/zap"
)

// JobProcessor handles one delivered message
type JobProcessor interface {
	ProcessJob(ctx context.Context, msg *queue.Message) error
}

// Consume feeds queued jobs to p until ctx is cancelled or the queue closes.
// Processing errors are logged; the processor owns ack and nack.
func Consume(ctx context.Context, jobQueue queue.JobQueue, prefetch int, p JobProcessor, logger *zap.Logger) error {
	msgChan, errChan, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return err
	}

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				logger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgChan:
			if !ok {
				logger.Info("message_channel_closed")
				return nil
			}
			if err := p.ProcessJob(ctx, msg); err != nil {
				logger.Error("failed_to_process_job",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
				)
			}
		}
	}
}
