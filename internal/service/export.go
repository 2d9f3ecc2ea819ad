package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/songkhoe/backend/internal/audit"
	"github.com/songkhoe/backend/internal/azure"
	"github.com/songkhoe/backend/internal/report"
	"github.com/songkhoe/backend/pkg/model"
	"go.uber.org/zap"
)

// PDFGeneratorInterface renders the history report
type PDFGeneratorInterface interface {
	Generate(records []model.HealthRecord, generatedAt time.Time) ([]byte, error)
}

// XLSXGeneratorInterface renders the history spreadsheet
type XLSXGeneratorInterface interface {
	Generate(records []model.HealthRecord) ([]byte, error)
}

// Export is a downloadable file
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	// ArchivePath is the blob the file was archived to, if any
	ArchivePath string
}

// JSONExport is the data portability document
type JSONExport struct {
	ExportedAt  time.Time            `json:"exportedAt"`
	RecordCount int                  `json:"recordCount"`
	Records     []model.HealthRecord `json:"records"`
}

// ExportService produces downloadable copies of the health log
type ExportService struct {
	store   RecordStoreInterface
	pdfGen  PDFGeneratorInterface
	xlsxGen XLSXGeneratorInterface
	archive azure.BlobStorage
	audit   AuditLoggerInterface
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates a new ExportService. archive may be nil, in which
// case PDF reports are not archived.
func NewExportService(
	store RecordStoreInterface,
	pdfGen PDFGeneratorInterface,
	xlsxGen XLSXGeneratorInterface,
	archive azure.BlobStorage,
	auditLogger AuditLoggerInterface,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		store:   store,
		pdfGen:  pdfGen,
		xlsxGen: xlsxGen,
		archive: archive,
		audit:   auditLogger,
		logger:  logger,
		now:     time.Now,
	}
}

// ExportJSON dumps every record in insertion order
func (s *ExportService) ExportJSON(ctx context.Context, meta RequestMeta) (*Export, error) {
	records := s.store.Records()
	now := s.now()

	data, err := json.MarshalIndent(JSONExport{
		ExportedAt:  now.UTC(),
		RecordCount: len(records),
		Records:     records,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	s.recordAudit(ctx, "json", len(records), meta)
	return &Export{
		Filename:    fmt.Sprintf("health_logs_%s.json", now.Format("20060102")),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// ExportPDF renders the history report and archives it when blob storage is configured
func (s *ExportService) ExportPDF(ctx context.Context, meta RequestMeta) (*Export, error) {
	records := s.store.Records()
	now := s.now()
	reportID := uuid.New().String()

	pdfBytes, err := s.pdfGen.Generate(records, now)
	if err != nil {
		s.logger.Error("failed to generate PDF",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	export := &Export{
		Filename:    fmt.Sprintf("health_report_%s.pdf", now.Format("20060102")),
		ContentType: "application/pdf",
		Data:        pdfBytes,
	}

	if s.archive != nil {
		blobPath, err := s.archive.ArchiveReport(ctx,
			fmt.Sprintf("%s_%s.pdf", reportID, now.Format("20060102")), export.ContentType, pdfBytes)
		if err != nil {
			s.logger.Warn("failed to archive PDF report",
				zap.Error(err),
				zap.String("report_id", reportID),
			)
		} else {
			export.ArchivePath = blobPath
		}
	}

	s.logger.Info("health report exported",
		zap.String("report_id", reportID),
		zap.Int("record_count", len(records)),
		zap.String("blob_path", export.ArchivePath),
	)
	s.recordAudit(ctx, "pdf", len(records), meta)
	return export, nil
}

// ExportXLSX renders the history spreadsheet
func (s *ExportService) ExportXLSX(ctx context.Context, meta RequestMeta) (*Export, error) {
	records := s.store.Records()

	data, err := s.xlsxGen.Generate(records)
	if err != nil {
		s.logger.Error("failed to generate XLSX", zap.Error(err))
		return nil, fmt.Errorf("failed to generate XLSX: %w", err)
	}

	s.recordAudit(ctx, "xlsx", len(records), meta)
	return &Export{
		Filename:    fmt.Sprintf("health_logs_%s.xlsx", s.now().Format("20060102")),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

func (s *ExportService) recordAudit(ctx context.Context, format string, count int, meta RequestMeta) {
	if s.audit == nil {
		return
	}
	err := s.audit.Log(ctx, audit.Entry{
		OperationType:  audit.OperationExport,
		ResourceType:   audit.ResourceReport,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		AdditionalData: map[string]any{"format": format, "record_count": count},
	})
	if err != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}

var (
	_ PDFGeneratorInterface  = (*report.PDFGenerator)(nil)
	_ XLSXGeneratorInterface = (*report.XLSXGenerator)(nil)
)
