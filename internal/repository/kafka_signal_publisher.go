package repository

import (
	"context"
	"fmt"
	"time"

	"DipScan/internal/domain/models"
	pkgkafka "DipScan/pkg/kafka"
)

type signalPublisher interface {
	PublishBatch(ctx context.Context, messages []pkgkafka.Message) error
}

// SignalEvent is the Kafka payload, one per ranked asset, keyed by ticker.
type SignalEvent struct {
	RunID         string                      `json:"run_id"`
	ScannedAt     time.Time                   `json:"scanned_at"`
	Rank          int                         `json:"rank"`
	Ticker        string                      `json:"ticker"`
	Name          string                      `json:"name"`
	Probabilities models.HorizonProbabilities `json:"probabilities"`
	Average       float64                     `json:"avg"`
	Signal        models.Signal               `json:"signal"`
	Top           bool                        `json:"top"`
}

type KafkaSignalPublisher struct {
	producer signalPublisher
}

func NewKafkaSignalPublisher(p signalPublisher) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: p}
}

func (k *KafkaSignalPublisher) Name() string { return "kafka" }

func (k *KafkaSignalPublisher) Write(ctx context.Context, report *models.ScanReport) error {
	topN := len(report.Top)
	msgs := make([]pkgkafka.Message, 0, report.Ranked.Len())
	for i, sig := range report.Ranked.Signals {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(sig.Asset.Ticker),
			Value: SignalEvent{
				RunID:         report.RunID,
				ScannedAt:     report.FinishedAt,
				Rank:          sig.Rank,
				Ticker:        sig.Asset.Ticker,
				Name:          sig.Asset.Name,
				Probabilities: sig.Probabilities,
				Average:       sig.Average,
				Signal:        sig.Signal,
				Top:           i < topN,
			},
		})
	}
	if err := k.producer.PublishBatch(ctx, msgs); err != nil {
		return fmt.Errorf("publish signals: %w", err)
	}
	return nil
}
