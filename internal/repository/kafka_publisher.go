package repository

import (
	"context"
	"fmt"

	"RankPulse/internal/domain/models"
	domrepo "RankPulse/internal/domain/repository"
	"RankPulse/pkg/kafka"
	xlogger "RankPulse/pkg/logger"
)

// KafkaReportPublisher ships finished reports to the downstream summarization
// topic. Keyed by domain so all reports for one site land on one partition in
// order.
type KafkaReportPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *xlogger.Logger
}

// NewKafkaReportPublisher wires the publisher.
func NewKafkaReportPublisher(producer *kafka.Producer, topic string, l *xlogger.Logger) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic, logger: l}
}

var _ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, report *models.EnrichedReport) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(report.Domain), report); err != nil {
		return fmt.Errorf("publish report %s: %w", report.ReportID, err)
	}
	p.logger.Debug("report published",
		xlogger.String("report_id", report.ReportID),
		xlogger.String("topic", p.topic),
	)
	return nil
}

func (p *KafkaReportPublisher) Close() error {
	return p.producer.Close()
}

// NopReportPublisher drops reports; used when the Kafka handoff is disabled.
type NopReportPublisher struct{}

func (NopReportPublisher) PublishReport(context.Context, *models.EnrichedReport) error { return nil }
func (NopReportPublisher) Close() error                                               { return nil }
