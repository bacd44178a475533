package usecase

import (
	"context"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	xlogger "RankPulse/pkg/logger"
)

// ReportService drives one report generation end to end: translate the
// request into queries, fetch, assemble, and hand the result downstream.
type ReportService struct {
	orchestrator *FetchOrchestrator
	builder      *ReportBuilder
	publisher    repository.ReportPublisher
	logger       *xlogger.Logger
}

// NewReportService wires the service. A nil publisher disables the handoff.
func NewReportService(o *FetchOrchestrator, b *ReportBuilder, p repository.ReportPublisher, l *xlogger.Logger) *ReportService {
	return &ReportService{orchestrator: o, builder: b, publisher: p, logger: l}
}

// Generate produces a report for the request. The report always comes back;
// individual sections carry their own failure status. Publishing downstream
// is best effort and never fails the caller's request.
func (s *ReportService) Generate(ctx context.Context, req *models.ReportRequest, opts ...FetchOption) *models.EnrichedReport {
	queries := s.builder.Queries(req)
	results := s.orchestrator.FetchAll(ctx, queries, opts...)
	report := s.builder.Assemble(req, results)

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			s.logger.Error("report handoff failed",
				xlogger.String("report_id", report.ReportID),
				xlogger.Error(err),
			)
		}
	}
	return report
}
