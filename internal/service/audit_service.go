package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/jobs"
	"github.com/classora/classora-api/pkg/query"
)

const auditJobType = "audit_log"

type auditLogRepository interface {
	List(ctx context.Context, params query.Params) ([]models.AuditLog, int, error)
	Create(ctx context.Context, log *models.AuditLog) error
}

type auditApiRepository interface {
	ListAll(ctx context.Context) ([]models.Api, error)
}

// AuditService records handled requests asynchronously through the job
// queue and serves the read-only audit log listing.
type AuditService struct {
	repo    auditLogRepository
	apis    auditApiRepository
	cache   *CacheService
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewAuditService constructs the audit service. Call Start before serving
// requests and Stop on shutdown.
func NewAuditService(repo auditLogRepository, apis auditApiRepository, cache *CacheService, logger *zap.Logger, cfg jobs.QueueConfig, enabled bool) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, apis: apis, cache: cache, logger: logger, enabled: enabled}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("audit", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the queue workers.
func (s *AuditService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Record enqueues one audit row. It never blocks request handling: on a
// full queue the row is dropped with a warning.
func (s *AuditService) Record(log models.AuditLog) {
	if !s.enabled {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: auditJobType, Payload: log}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue audit log", zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}

	// Resolve summary and module from the endpoint catalog; a request to
	// an uncatalogued route is still recorded.
	if log.Summary == "" || log.Module == "" {
		if api, err := s.resolveEndpoint(ctx, log.Method, log.Path); err != nil {
			s.logger.Warn("failed to resolve audit metadata", zap.Error(err))
		} else if api != nil {
			log.Summary = api.Summary
			if len(api.Tags) > 0 {
				log.Module = api.Tags[0]
			}
		}
	}

	if err := s.repo.Create(ctx, &log); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("auditlogs"))
	return nil
}

// resolveEndpoint matches a recorded (method, path) against the catalog.
// The recorded path is a gin route template and the catalog stores OpenAPI
// templates, so both sides are compared in normalized form. A nil result
// means the route is not catalogued.
func (s *AuditService) resolveEndpoint(ctx context.Context, method, path string) (*models.Api, error) {
	apis, err := s.apis.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	route := models.NormalizeRoute(path)
	for i := range apis {
		if strings.EqualFold(string(apis[i].Method), method) && models.NormalizeRoute(apis[i].Path) == route {
			return &apis[i], nil
		}
	}
	return nil, nil
}

type auditPage struct {
	Logs []models.AuditLog `json:"logs"`
	Meta *models.Paginator `json:"meta"`
}

// List returns audit rows and pagination metadata.
func (s *AuditService) List(ctx context.Context, params query.Params) ([]models.AuditLog, *models.Paginator, error) {
	key := ListKey("auditlogs", params)
	var cached auditPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Logs, cached.Meta, nil
	}

	logs, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, auditPage{Logs: logs, Meta: meta}, 0)
	return logs, meta, nil
}
