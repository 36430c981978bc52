package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/adforge/backend/internal/events"
	"github.com/adforge/backend/internal/metrics"
	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/pipeline"
	"github.com/adforge/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateStore interface {
	pipeline.TemplateFinder
	Create(ctx context.Context, t *models.Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	Update(ctx context.Context, id uuid.UUID, p models.TemplatePatch) error
	IncrementUsage(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f repositories.TemplateFilter) ([]models.Template, error)
}

type TaskStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CompletedTask, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
	ListForTemplate(ctx context.Context, templateID uuid.UUID, limit int) ([]models.AuditLog, error)
}

// Row outcome statuses reported by an import.
const (
	RowCreated   = "created"
	RowDuplicate = "duplicate"
	RowInvalid   = "invalid"
	RowFailed    = "failed"
)

// RowOutcome reports what happened to one data row. Row is 1-based and
// counts data rows only.
type RowOutcome struct {
	Row        int        `json:"row"`
	Name       string     `json:"name,omitempty"`
	Status     string     `json:"status"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Rule       string     `json:"rule,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

type ImportResult struct {
	Outcomes   []RowOutcome `json:"outcomes"`
	Created    int          `json:"created"`
	Duplicates int          `json:"duplicates"`
	Invalid    int          `json:"invalid"`
	Failed     int          `json:"failed"`
}

func (r *ImportResult) add(o RowOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case RowCreated:
		r.Created++
	case RowDuplicate:
		r.Duplicates++
	case RowInvalid:
		r.Invalid++
	default:
		r.Failed++
	}
}

type TemplateService struct {
	templates    TemplateStore
	tasks        TaskStore
	audit        AuditLogger
	publisher    events.Publisher
	materializer *pipeline.Materializer
	metrics      *metrics.Metrics
	maxRows      int
	log          *zap.Logger
}

func NewTemplateService(
	templates TemplateStore,
	tasks TaskStore,
	audit AuditLogger,
	publisher events.Publisher,
	m *metrics.Metrics,
	maxRows int,
	log *zap.Logger,
) *TemplateService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TemplateService{
		templates:    templates,
		tasks:        tasks,
		audit:        audit,
		publisher:    publisher,
		materializer: pipeline.NewMaterializer(pipeline.NewDuplicateDetector(templates), log),
		metrics:      m,
		maxRows:      maxRows,
		log:          log,
	}
}

// ImportFile reads a CSV or XLSX upload and imports every row. Only a file
// that cannot be read at all returns an error; row failures are reported in
// the result.
func (s *TemplateService) ImportFile(ctx context.Context, filename string, r io.Reader, owner models.Ownership) (*ImportResult, error) {
	start := time.Now()
	rows, err := pipeline.ReadRows(filename, r, s.maxRows)
	if err != nil {
		return nil, &pipeline.ValidationError{Rule: pipeline.RuleFile, Field: "file", Message: err.Error()}
	}

	result := s.ImportRows(ctx, rows, owner)

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	s.metrics.ObserveFile(format, time.Since(start).Seconds())
	s.log.Info("import finished",
		zap.String("file", filename),
		zap.Int("rows", len(rows)),
		zap.Int("created", result.Created),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("invalid", result.Invalid),
		zap.Int("failed", result.Failed),
	)
	s.publish(ctx, events.EventImportFinished, map[string]any{
		"file":       filename,
		"created":    result.Created,
		"duplicates": result.Duplicates,
		"invalid":    result.Invalid,
		"failed":     result.Failed,
	})
	return result, nil
}

// ImportRows processes rows in order so a later row sees templates created
// by earlier ones. A row error never stops the batch.
func (s *TemplateService) ImportRows(ctx context.Context, rows []pipeline.CandidateRow, owner models.Ownership) *ImportResult {
	result := &ImportResult{Outcomes: make([]RowOutcome, 0, len(rows))}
	for i, row := range rows {
		outcome := s.importRow(ctx, row, owner)
		outcome.Row = i + 1
		s.metrics.ObserveRow(outcome.Status)
		result.add(outcome)
	}
	return result
}

func (s *TemplateService) importRow(ctx context.Context, row pipeline.CandidateRow, owner models.Ownership) RowOutcome {
	outcome := RowOutcome{Name: strings.TrimSpace(row.TemplateName)}

	tmpl, err := s.materializer.FromCSV(ctx, row, owner)
	if err == nil {
		err = s.create(ctx, tmpl)
	}

	var (
		verr *pipeline.ValidationError
		derr *pipeline.DuplicateError
	)
	switch {
	case err == nil:
		outcome.Status = RowCreated
		outcome.Name = tmpl.Name
		outcome.TemplateID = &tmpl.ID
		s.metrics.ObserveCreated("import")
		s.logAudit(ctx, models.TemplateAudit(owner.OwnerID(), models.AuditTemplateImported, tmpl.ID,
			map[string]any{"category": tmpl.Category}))
	case errors.As(err, &verr):
		outcome.Status = RowInvalid
		outcome.Rule = verr.Rule
		outcome.Reason = verr.Error()
	case errors.As(err, &derr):
		outcome.Status = RowDuplicate
		outcome.Reason = derr.Error()
	default:
		s.log.Error("import row failed", zap.String("name", outcome.Name), zap.Error(err))
		outcome.Status = RowFailed
		outcome.Reason = "could not save template, try again later"
	}
	return outcome
}

// CreateFromTask saves the curated output of a completed task as a template
// owned by userID.
func (s *TemplateService) CreateFromTask(ctx context.Context, userID, taskID uuid.UUID, input pipeline.TaskTemplateInput) (*models.Template, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &pipeline.NotFoundError{Entity: "task", ID: taskID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task.UserID != userID {
		return nil, &pipeline.UnauthorizedError{Reason: "task belongs to another user"}
	}

	tmpl, err := s.materializer.FromTask(task, input, userID)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, tmpl); err != nil {
		return nil, err
	}

	s.metrics.ObserveCreated("task")
	s.logAudit(ctx, models.TemplateAudit(&userID, models.AuditTemplateFromTask, tmpl.ID,
		map[string]any{"task_id": taskID.String()}))
	s.publish(ctx, events.EventTemplateCreated, map[string]any{
		"template_id": tmpl.ID.String(),
		"source":      "task",
	})
	return tmpl, nil
}

func (s *TemplateService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Template, error) {
	return s.loadReadable(ctx, userID, id)
}

func (s *TemplateService) List(ctx context.Context, userID uuid.UUID, f repositories.TemplateFilter) ([]models.Template, error) {
	f.ViewerID = userID
	templates, err := s.templates.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []models.Template{}
	}
	return templates, nil
}

// Update applies an owner's edit. Sub-objects in the patch replace the
// stored ones whole.
func (s *TemplateService) Update(ctx context.Context, userID, id uuid.UUID, patch models.TemplatePatch) (*models.Template, error) {
	patch, err := pipeline.NormalizePatch(patch)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, &pipeline.ValidationError{Rule: pipeline.RuleRequired, Field: "body", Message: "nothing to update"}
	}

	existing, err := s.loadMutable(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Visibility != nil {
		if _, err := existing.Ownership.WithVisibility(*patch.Visibility); err != nil {
			return nil, &pipeline.ValidationError{Rule: pipeline.RuleVisibility, Field: "visibility", Message: err.Error()}
		}
	}

	if err := s.templates.Update(ctx, id, patch); err != nil {
		return nil, s.mapStoreError(err, mergedKey(existing, patch))
	}

	s.logAudit(ctx, models.TemplateAudit(&userID, models.AuditTemplateUpdated, id, nil))
	s.publish(ctx, events.EventTemplateUpdated, map[string]any{"template_id": id.String()})
	return s.templates.GetByID(ctx, id)
}

// SetVisibility is idempotent: setting the current value writes nothing.
func (s *TemplateService) SetVisibility(ctx context.Context, userID, id uuid.UUID, v models.Visibility) (*models.Template, error) {
	parsed, err := models.ParseVisibility(strings.ToUpper(strings.TrimSpace(string(v))))
	if err != nil {
		return nil, &pipeline.ValidationError{Rule: pipeline.RuleVisibility, Field: "visibility", Message: err.Error()}
	}

	existing, err := s.loadMutable(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if existing.Ownership.Visibility() == parsed {
		return existing, nil
	}

	ownership, err := existing.Ownership.WithVisibility(parsed)
	if err != nil {
		return nil, &pipeline.ValidationError{Rule: pipeline.RuleVisibility, Field: "visibility", Message: err.Error()}
	}
	if err := s.templates.Update(ctx, id, models.TemplatePatch{Visibility: &parsed}); err != nil {
		return nil, s.mapStoreError(err, mergedKey(existing, models.TemplatePatch{}))
	}
	existing.Ownership = ownership

	s.logAudit(ctx, models.TemplateAudit(&userID, models.AuditVisibilityChanged, id,
		map[string]any{"visibility": parsed}))
	return existing, nil
}

func (s *TemplateService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.loadMutable(ctx, userID, id); err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return s.mapStoreError(err, templateKey{id: id})
	}

	s.logAudit(ctx, models.TemplateAudit(&userID, models.AuditTemplateDeleted, id, nil))
	s.publish(ctx, events.EventTemplateDeleted, map[string]any{"template_id": id.String()})
	return nil
}

// Launch expands a readable template into a launch payload and counts the
// use. The counter is only touched once the payload is complete.
func (s *TemplateService) Launch(ctx context.Context, userID, id uuid.UUID, overrides models.LaunchOverrides) (*models.LaunchPayload, error) {
	tmpl, err := s.loadReadable(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	payload, err := pipeline.ForLaunch(tmpl, overrides)
	if err != nil {
		s.metrics.ObserveLaunch("rejected")
		return nil, err
	}

	count, err := s.templates.IncrementUsage(ctx, id)
	if err != nil {
		s.metrics.ObserveLaunch("failed")
		return nil, s.mapStoreError(err, templateKey{id: id})
	}

	s.metrics.ObserveLaunch("ok")
	s.log.Info("template launched",
		zap.String("template_id", id.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("usage_count", count),
	)
	s.logAudit(ctx, models.TemplateAudit(&userID, models.AuditTemplateLaunched, id,
		map[string]any{"usage_count": count}))
	s.publish(ctx, events.EventTemplateLaunched, map[string]any{
		"template_id": id.String(),
		"usage_count": count,
	})
	return payload, nil
}

// History lists audit entries for a template the user owns.
func (s *TemplateService) History(ctx context.Context, userID, id uuid.UUID, limit int) ([]models.AuditLog, error) {
	if _, err := s.loadMutable(ctx, userID, id); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListForTemplate(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	return entries, nil
}

func (s *TemplateService) create(ctx context.Context, tmpl *models.Template) error {
	if err := s.templates.Create(ctx, tmpl); err != nil {
		return s.mapStoreError(err, templateKey{name: tmpl.Name, category: tmpl.Category})
	}
	return nil
}

// loadReadable hides private templates of other users behind NotFoundError.
func (s *TemplateService) loadReadable(ctx context.Context, userID, id uuid.UUID) (*models.Template, error) {
	tmpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, templateKey{id: id})
	}
	if !tmpl.CanRead(userID) {
		return nil, &pipeline.NotFoundError{Entity: "template", ID: id.String()}
	}
	return tmpl, nil
}

func (s *TemplateService) loadMutable(ctx context.Context, userID, id uuid.UUID) (*models.Template, error) {
	tmpl, err := s.loadReadable(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !tmpl.CanMutate(userID) {
		return nil, &pipeline.UnauthorizedError{Reason: "only the owner can modify this template"}
	}
	return tmpl, nil
}

type templateKey struct {
	id       uuid.UUID
	name     string
	category models.Category
}

func mergedKey(t *models.Template, p models.TemplatePatch) templateKey {
	k := templateKey{id: t.ID, name: t.Name, category: t.Category}
	if p.Name != nil {
		k.name = *p.Name
	}
	if p.Category != nil {
		k.category = *p.Category
	}
	return k
}

func (s *TemplateService) mapStoreError(err error, k templateKey) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return &pipeline.NotFoundError{Entity: "template", ID: k.id.String()}
	case errors.Is(err, repositories.ErrConflict):
		return &pipeline.DuplicateError{Name: k.name, Category: k.category}
	default:
		return err
	}
}

func (s *TemplateService) logAudit(ctx context.Context, entry models.AuditLog) {
	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *TemplateService) publish(ctx context.Context, eventType string, payload map[string]any) {
	_ = s.publisher.Publish(ctx, events.StreamTemplates, events.Event{Type: eventType, Payload: payload})
}
