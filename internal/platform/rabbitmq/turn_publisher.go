package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"remobot/internal/model"
)

var ErrBadPayload = errors.New("bad turn payload")

type TurnPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewTurnPublisher(conn *amqp.Connection, queueName string) *TurnPublisher {
	return &TurnPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *TurnPublisher) PublishTurn(ctx context.Context, turn model.Turn) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := EncodeTurn(turn)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish turn failed: %w", err)
	}
	return nil
}

func EncodeTurn(turn model.Turn) ([]byte, error) {
	payload, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("marshal turn payload failed: %w", err)
	}
	return payload, nil
}

func DecodeTurn(body []byte) (model.Turn, error) {
	var turn model.Turn
	if err := json.Unmarshal(body, &turn); err != nil {
		return model.Turn{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if turn.ChatID == 0 || turn.Username == "" {
		return model.Turn{}, fmt.Errorf("%w: missing chat id or username", ErrBadPayload)
	}
	return turn, nil
}
