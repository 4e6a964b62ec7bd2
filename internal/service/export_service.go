package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/export"
	"github.com/classora/classora-api/pkg/query"
	"github.com/classora/classora-api/pkg/storage"
)

// Export formats accepted by the report endpoints.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type exportAuditRepository interface {
	List(ctx context.Context, params query.Params) ([]models.AuditLog, int, error)
}

type exportPaymentRepository interface {
	List(ctx context.Context, paymentType models.PaymentType, params query.Params) ([]models.PaymentDetail, int, error)
}

// ExportRequest selects the format and row filter for a generated report.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportResult points a client at a finished report download.
type ExportResult struct {
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders audit-log and payment reports, stores them and
// hands out signed expiring download tokens.
type ExportService struct {
	audits    exportAuditRepository
	payments  exportPaymentRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(audits exportAuditRepository, payments exportPaymentRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		audits:    audits,
		payments:  payments,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		validator: validate,
		logger:    logger,
	}
}

// ExportAuditLogs renders the filtered audit log as CSV or PDF.
func (s *ExportService) ExportAuditLogs(ctx context.Context, req ExportRequest, params query.Params) (*ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	params.Limit = query.MaxLimit

	logs, _, err := s.audits.List(ctx, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit logs")
	}

	rows := make([][]string, len(logs))
	for i, log := range logs {
		rows[i] = []string{
			log.Username,
			log.Summary,
			log.Module,
			log.Method,
			log.Path,
			strconv.Itoa(log.Status),
			fmt.Sprintf("%.2f ms", log.ResponseTime),
			log.CreatedAt.Format(time.RFC3339),
		}
	}
	dataset := export.Dataset{
		Title:   "Audit Log Report",
		Headers: []string{"Username", "Summary", "Module", "Method", "Path", "Status", "Response Time", "At"},
		Rows:    rows,
	}
	return s.render(dataset, "auditlogs", req.Format)
}

// ExportPayments renders the filtered payment ledger as CSV or PDF.
func (s *ExportService) ExportPayments(ctx context.Context, paymentType models.PaymentType, req ExportRequest, params query.Params) (*ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	params.Limit = query.MaxLimit

	payments, _, err := s.payments.List(ctx, paymentType, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	rows := make([][]string, len(payments))
	for i, p := range payments {
		rows[i] = []string{
			p.Student.StudentNumber,
			string(p.PaymentType),
			fmt.Sprintf("%.2f", p.Amount),
			MonthName(p.MonthNumber),
			strconv.Itoa(p.YearNumber),
			p.CreatedAt.Format(time.RFC3339),
		}
	}
	dataset := export.Dataset{
		Title:   "Payment Report",
		Headers: []string{"Student Number", "Type", "Amount", "Month", "Year", "At"},
		Rows:    rows,
	}
	return s.render(dataset, "payments", req.Format)
}

// ExportReceipt renders a single payment receipt as PDF.
func (s *ExportService) ExportReceipt(receipt *PaymentReceipt) (*ExportResult, error) {
	rows := [][]string{{
		receipt.Student.StudentNumber,
		string(receipt.PaymentType),
		fmt.Sprintf("%.2f", receipt.Amount),
		MonthName(receipt.MonthNumber),
		strconv.Itoa(receipt.YearNumber),
	}}
	for _, course := range receipt.Courses {
		var fee float64
		if course.Fee != nil {
			fee = *course.Fee
		}
		rows = append(rows, []string{course.Code, course.Name, fmt.Sprintf("%.2f", fee), "", ""})
	}
	dataset := export.Dataset{
		Title:   "Payment Receipt",
		Headers: []string{"Student / Course", "Type / Name", "Amount", "Month", "Year"},
		Rows:    rows,
	}
	return s.render(dataset, "receipts", FormatPDF)
}

// Download validates a signed token and opens the referenced report file.
func (s *ExportService) Download(token string) (*os.File, error) {
	relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report no longer available")
	}
	return file, nil
}

func (s *ExportService) render(dataset export.Dataset, kind, format string) (*ExportResult, error) {
	var (
		payload []byte
		err     error
	)
	switch format {
	case FormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	fileName := fmt.Sprintf("%s/%s-%s.%s", kind, kind, uuid.NewString(), format)
	relPath, err := s.store.Save(fileName, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &ExportResult{FileName: relPath, Token: token, ExpiresAt: expiresAt}, nil
}
