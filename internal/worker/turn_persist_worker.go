package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"remobot/internal/app"
	"remobot/internal/model"
	"remobot/internal/platform/rabbitmq"
)

type TurnAppender interface {
	AppendTurn(ctx context.Context, turn model.Turn) error
}

// TurnPersistWorker consumes published turns and appends them to history.
type TurnPersistWorker struct {
	conn      *amqp.Connection
	appender  TurnAppender
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnPersistWorker(conn *amqp.Connection, appender TurnAppender, queueName string, log *zap.Logger) *TurnPersistWorker {
	return &TurnPersistWorker{
		conn:      conn,
		appender:  appender,
		queueName: queueName,
		log:       log.Named("worker.turn_persist"),
	}
}

func (w *TurnPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.settle(d, w.Handle(workerCtx, d.Body))
			}
		}
	}()

	w.log.Info("worker started", zap.String("queue", w.queueName))
	return nil
}

// Handle persists one delivery body.
func (w *TurnPersistWorker) Handle(ctx context.Context, body []byte) error {
	turn, err := rabbitmq.DecodeTurn(body)
	if err != nil {
		return err
	}
	return w.appender.AppendTurn(ctx, turn)
}

func (w *TurnPersistWorker) settle(d amqp.Delivery, err error) {
	if err == nil {
		_ = d.Ack(false)
		return
	}
	// A vanished or foreign chat will never succeed; drop it.
	w.log.Error("persist turn failed", zap.Error(err), zap.Bool("permanent", isPermanent(err)))
	_ = d.Nack(false, !isPermanent(err))
}

func isPermanent(err error) bool {
	switch {
	case errors.Is(err, rabbitmq.ErrBadPayload),
		errors.Is(err, app.ErrChatNotFound),
		errors.Is(err, app.ErrInvalidMessages),
		errors.Is(err, app.ErrInvalidInput):
		return true
	default:
		return false
	}
}

func (w *TurnPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
