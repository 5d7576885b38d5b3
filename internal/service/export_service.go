package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduportal/oferta-api/internal/models"
	"github.com/eduportal/oferta-api/internal/search"
	"github.com/eduportal/oferta-api/pkg/export"
	appErrors "github.com/eduportal/oferta-api/pkg/errors"
	"github.com/eduportal/oferta-api/pkg/jobs"
	"github.com/eduportal/oferta-api/pkg/storage"
)

// ExportFormat enumerates supported output formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks the lifecycle of an export job.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob describes one catalog export. Jobs live in memory and share
// the lifetime of the generated files.
type ExportJob struct {
	ID          string               `json:"id"`
	Format      ExportFormat         `json:"format"`
	Status      ExportStatus         `json:"status"`
	Filters     models.SearchFilters `json:"filters"`
	RowCount    int                  `json:"row_count,omitempty"`
	Error       string               `json:"error,omitempty"`
	DownloadURL string               `json:"download_url,omitempty"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

// CreateExportRequest captures fields for requesting an export.
type CreateExportRequest struct {
	Format  string               `json:"format" validate:"required,oneof=csv pdf"`
	Filters models.SearchFilters `json:"filters"`
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportServiceConfig tunes export behaviour.
type ExportServiceConfig struct {
	APIPrefix string
	MaxRows   int
	FileTTL   time.Duration
}

// ExportService renders filtered catalog pages into downloadable files on
// background workers.
type ExportService struct {
	searcher  catalogSearcher
	queue     jobEnqueuer
	storage   fileStorage
	signer    *storage.SignedURLSigner
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportServiceConfig

	mu   sync.RWMutex
	jobs map[string]*ExportJob
}

// NewExportService constructs an ExportService. Attach the worker queue
// afterwards with SetQueue since the queue handler needs the service.
func NewExportService(searcher catalogSearcher, store fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	if cfg.FileTTL <= 0 {
		cfg.FileTTL = 24 * time.Hour
	}
	return &ExportService{
		searcher:  searcher,
		storage:   store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		jobs:      make(map[string]*ExportJob),
	}
}

// SetQueue attaches the worker queue used to run jobs.
func (s *ExportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Create registers an export job and enqueues it for rendering.
func (s *ExportService) Create(ctx context.Context, req CreateExportRequest) (*ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "exports are not configured")
	}

	job := &ExportJob{
		ID:        uuid.NewString(),
		Format:    ExportFormat(req.Format),
		Status:    ExportStatusQueued,
		Filters:   req.Filters,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "catalog_export"}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}

	return s.snapshot(job.ID), nil
}

// Get returns the current state of a job.
func (s *ExportService) Get(id string) (*ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// Process is the queue handler: it renders one export job end to end.
func (s *ExportService) Process(ctx context.Context, queued jobs.Job) error {
	s.mu.Lock()
	job, ok := s.jobs[queued.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("export job %s unknown", queued.ID)
	}
	job.Status = ExportStatusProcessing
	format := job.Format
	filters := job.Filters
	s.mu.Unlock()

	offerings, err := s.collect(ctx, filters)
	if err != nil {
		s.fail(queued.ID, err)
		return err
	}

	dataset := offeringsDataset(offerings)
	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Oferta académica")
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		s.fail(queued.ID, err)
		return err
	}

	fileName := fmt.Sprintf("%s/%s.%s", time.Now().UTC().Format("2006-01"), queued.ID, format)
	if _, err := s.storage.Save(fileName, payload); err != nil {
		s.fail(queued.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(queued.ID, fileName)
	if err != nil {
		// The file is unreachable without a token; don't orphan it.
		if delErr := s.storage.Delete(fileName); delErr != nil {
			s.logger.Warn("failed to remove unsigned export file", zap.Error(delErr))
		}
		s.fail(queued.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	job.Status = ExportStatusCompleted
	job.RowCount = len(offerings)
	job.DownloadURL = fmt.Sprintf("%s/exports/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
	job.ExpiresAt = &expiresAt
	job.CompletedAt = &now
	s.mu.Unlock()

	s.logger.Info("export completed",
		zap.String("job_id", queued.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(offerings)))

	// Best-effort cleanup of files past their retention window.
	if _, err := s.storage.CleanupOlderThan(s.cfg.FileTTL); err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	}

	return nil
}

// ResolveDownload validates a signed token and opens the referenced file.
func (s *ExportService) ResolveDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download token")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}

	parts := strings.Split(relPath, "/")
	return file, parts[len(parts)-1], nil
}

// collect pages through the catalog under the job's filters up to the
// configured row cap.
func (s *ExportService) collect(ctx context.Context, filters models.SearchFilters) ([]models.Offering, error) {
	var collected []models.Offering
	page := 1
	for len(collected) < s.cfg.MaxRows {
		filters.Page = page
		filters.Limit = search.MaxLimit
		result, _, err := s.searcher.Search(ctx, filters)
		if err != nil {
			return nil, err
		}
		collected = append(collected, result.Offerings...)
		if !result.Pagination.HasNext {
			break
		}
		page++
	}
	if len(collected) > s.cfg.MaxRows {
		collected = collected[:s.cfg.MaxRows]
	}
	return collected, nil
}

func (s *ExportService) fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = ExportStatusFailed
		job.Error = err.Error()
	}
}

func (s *ExportService) snapshot(id string) *ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	cp := *job
	return &cp
}

var exportHeaders = []string{"Carrera", "Institución", "Modalidad", "Nivel", "Área", "Duración (semestres)", "Valor semestre", "Jornada", "Enlace"}

func offeringsDataset(offerings []models.Offering) export.Dataset {
	rows := make([]map[string]string, 0, len(offerings))
	for _, offering := range offerings {
		tuition := ""
		if offering.TuitionPerTerm > 0 {
			tuition = strconv.FormatFloat(offering.TuitionPerTerm, 'f', 0, 64)
		}
		row := map[string]string{
			"Carrera":              offering.Name,
			"Institución":          offering.Institution,
			"Modalidad":            offering.Modality,
			"Nivel":                offering.Level,
			"Área":                 offering.Area,
			"Duración (semestres)": strconv.Itoa(offering.DurationSemesters),
			"Valor semestre":       tuition,
		}
		if offering.Shift != nil {
			row["Jornada"] = *offering.Shift
		}
		if offering.OfficialLink != nil {
			row["Enlace"] = *offering.OfficialLink
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
