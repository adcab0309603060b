package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/simonvc/ledgersync/internal/syncer"
)

const (
	CommandCreate = "movement.create"
	CommandPost   = "movement.post"
)

// Command is the message body written to the movements topic.
type Command struct {
	Type     string           `json:"type"`
	ID       string           `json:"id"`
	Movement *syncer.Movement `json:"movement,omitempty"`
	PostedBy string           `json:"postedBy,omitempty"`
	IssuedAt time.Time        `json:"issuedAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements syncer.MovementService by publishing commands.
// Movement ids are assigned locally, and creation is confirmed once the
// broker acknowledges the write. Every command is keyed by movement id so a
// post lands on the same partition as, and after, its create.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *KafkaPublisher) CreateMovement(ctx context.Context, m syncer.Movement) (string, error) {
	m.ID = uuid.Must(uuid.NewV7()).String()
	cmd := Command{Type: CommandCreate, ID: m.ID, Movement: &m, IssuedAt: time.Now().UTC()}
	if err := p.publish(ctx, m.ID, cmd); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (p *KafkaPublisher) PostMovement(ctx context.Context, id, who string) error {
	return p.publish(ctx, id, Command{Type: CommandPost, ID: id, PostedBy: who, IssuedAt: time.Now().UTC()})
}

func (p *KafkaPublisher) publish(ctx context.Context, key string, cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", cmd.Type, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(cmd.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", cmd.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
