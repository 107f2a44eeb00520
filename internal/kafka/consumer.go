package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
// Error biasa di-retry; kalau tetap gagal, consumer berhenti tanpa commit.
// Bungkus dengan Permanent untuk message yang tidak akan pernah bisa diproses.
type Handler func(ctx context.Context, m kafka.Message) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as unrecoverable: the message is logged, committed and
// skipped instead of retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r        messageReader
	workers  int
	logger   *logrus.Logger
	attempts int
	backoff  time.Duration
}

func NewConsumer(brokers []string, group string, topics []string, workers int, logger *logrus.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, logger)
}

func newConsumer(r messageReader, workers int, logger *logrus.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, logger: logger, attempts: 3, backoff: 200 * time.Millisecond}
}

// Start blocks until ctx is cancelled, the reader fails, or a message keeps
// failing after its retries. Messages of one partition always go to the same
// worker, so an offset is only committed after everything before it.
// The reader is closed after every worker has returned.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queues := make([]chan kafka.Message, c.workers)
	errs := make(chan error, c.workers)
	var wg sync.WaitGroup

	for i := range queues {
		queues[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			if err := c.work(ctx, id, jobs, h); err != nil {
				errs <- err
				cancel()
			}
		}(i, queues[i])
	}

	fetchErr := c.dispatch(ctx, queues)
	for _, q := range queues {
		close(q)
	}
	wg.Wait()
	if err := c.r.Close(); err != nil {
		c.logger.WithError(err).Warn("close reader")
	}

	select {
	case err := <-errs:
		return err
	default:
	}
	// kecilkan noise saat shutdown
	if parent.Err() != nil {
		return nil
	}
	return fetchErr
}

func (c *Consumer) dispatch(ctx context.Context, queues []chan kafka.Message) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			return err
		}
		select {
		case queues[m.Partition%len(queues)] <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) work(ctx context.Context, id int, jobs <-chan kafka.Message, h Handler) error {
	for m := range jobs {
		if ctx.Err() != nil {
			return nil
		}
		log := c.logger.WithFields(logrus.Fields{
			"worker":    id,
			"topic":     m.Topic,
			"partition": m.Partition,
			"offset":    m.Offset,
		})

		if err := c.handle(ctx, m, h); err != nil {
			if !IsPermanent(err) {
				if ctx.Err() != nil {
					return nil
				}
				log.WithError(err).Error("handle message failed, partition stopped")
				return fmt.Errorf("handle %s[%d]@%d: %w", m.Topic, m.Partition, m.Offset, err)
			}
			log.WithError(err).Warn("unprocessable message skipped")
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit %s[%d]@%d: %w", m.Topic, m.Partition, m.Offset, err)
		}
	}
	return nil
}

// handle runs h with exponential backoff between attempts.
func (c *Consumer) handle(ctx context.Context, m kafka.Message, h Handler) error {
	var err error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}
		if err = h(ctx, m); err == nil || IsPermanent(err) {
			return err
		}
	}
	return err
}
