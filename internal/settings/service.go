package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync/atomic"

	"shopflow/internal/audit"
	"shopflow/internal/workflow/models"
	"shopflow/internal/workflow/table"
	id "shopflow/pkg/domain"
	dErrors "shopflow/pkg/domain-errors"
	pstrings "shopflow/pkg/platform/strings"
)

// Store is the persistence contract for settings documents.
type Store interface {
	// Get returns the current document for a group, or CodeNotFound.
	Get(ctx context.Context, group string) (*Record, error)
	// Save upserts a group document and returns the new version.
	Save(ctx context.Context, group string, doc json.RawMessage) (int, error)
	// CreateIfAbsent writes the document only when the group does not
	// exist yet. Reports whether it wrote.
	CreateIfAbsent(ctx context.Context, group string, doc json.RawMessage) (bool, error)
}

// Recorder appends audit entries for settings loads.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) (id.AuditEntryID, error)
}

// snapshot is one validated configuration generation. Immutable; readers
// share it without locks.
type snapshot struct {
	tables        map[id.EntityType]*table.Table
	broken        map[id.EntityType]error
	initial       map[id.EntityType]id.StatusCode
	idempotent    map[id.EntityType]bool
	elevated      map[id.EntityType]map[id.Role]struct{}
	notifications map[id.EntityType]map[id.StatusCode]models.NotificationTemplate
	versions      map[string]int
}

// Service loads settings documents, validates them, and serves the current
// snapshot. A defective rule set for one entity kind never takes down the
// others: that kind alone becomes unserviceable. Load never partially
// applies; a failed load leaves the previous snapshot serving.
type Service struct {
	store    Store
	logger   *slog.Logger
	recorder Recorder
	snap     atomic.Pointer[snapshot]
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditRecorder records an entry for each settings load.
func WithAuditRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// InitializeIfAbsent seeds one group with defaults. Existing documents are
// never touched; concurrent seeding resolves to exactly one write via the
// store's uniqueness on the group key.
func (s *Service) InitializeIfAbsent(ctx context.Context, group string, defaults any) (bool, error) {
	doc, err := json.Marshal(defaults)
	if err != nil {
		return false, fmt.Errorf("marshal %s defaults: %w", group, err)
	}
	created, err := s.store.CreateIfAbsent(ctx, group, doc)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "seed settings group "+group)
	}
	if created && s.logger != nil {
		s.logger.InfoContext(ctx, "settings group seeded with defaults", "group", group)
	}
	return created, nil
}

// Load reads, validates, and atomically installs a new snapshot. On any
// error the previous snapshot, if one exists, keeps serving.
func (s *Service) Load(ctx context.Context) error {
	rulesRec, err := s.store.Get(ctx, GroupWorkflowRules)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeOf(err), "load workflow rules")
	}
	var rules WorkflowRulesDoc
	if err := json.Unmarshal(rulesRec.Document, &rules); err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedTable, "workflow rules document is not valid JSON")
	}

	next := &snapshot{
		tables:        make(map[id.EntityType]*table.Table),
		broken:        make(map[id.EntityType]error),
		initial:       make(map[id.EntityType]id.StatusCode),
		idempotent:    make(map[id.EntityType]bool),
		elevated:      make(map[id.EntityType]map[id.Role]struct{}),
		notifications: make(map[id.EntityType]map[id.StatusCode]models.NotificationTemplate),
		versions:      map[string]int{GroupWorkflowRules: rulesRec.Version},
	}

	for _, entity := range rules.Entities {
		s.loadEntityRules(ctx, next, entity)
	}

	if err := s.loadEscalation(ctx, next); err != nil {
		return err
	}

	s.snap.Store(next)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "settings snapshot installed",
			"rules_version", next.versions[GroupWorkflowRules],
			"entity_kinds", len(next.tables),
			"unserviceable_kinds", len(next.broken),
		)
	}
	s.recordLoad(ctx, next)
	return nil
}

func (s *Service) loadEntityRules(ctx context.Context, next *snapshot, entity EntityRules) {
	kind := id.EntityType(entity.EntityType)

	def := table.Definition{
		EntityType:  kind,
		Statuses:    make([]models.Status, 0, len(entity.Statuses)),
		Transitions: make(map[id.StatusCode][]id.StatusCode, len(entity.Transitions)),
		Total:       entity.Total,
	}
	for _, st := range entity.Statuses {
		code, err := id.ParseStatusCode(st.Code)
		if err != nil {
			next.broken[kind] = dErrors.New(dErrors.CodeMalformedTable,
				fmt.Sprintf("%s: invalid status code %q", kind, st.Code))
			return
		}
		def.Statuses = append(def.Statuses, models.Status{
			Code:      code,
			Label:     st.Label,
			SortOrder: st.SortOrder,
		})
	}
	for from, targets := range entity.Transitions {
		codes := make([]id.StatusCode, 0, len(targets))
		for _, to := range targets {
			codes = append(codes, id.StatusCode(to))
		}
		def.Transitions[id.StatusCode(from)] = codes
	}

	tbl, err := table.New([]table.Definition{def})
	if err != nil {
		next.broken[kind] = err
		if s.logger != nil {
			s.logger.WarnContext(ctx, "workflow rules rejected, entity kind is unserviceable",
				"entity_type", kind,
				"error", err.Error(),
			)
		}
		return
	}

	initial, err := initialStatus(entity, def)
	if err != nil {
		next.broken[kind] = err
		return
	}

	next.tables[kind] = tbl
	next.initial[kind] = initial
	next.idempotent[kind] = entity.IdempotentNoOp
}

func (s *Service) loadEscalation(ctx context.Context, next *snapshot) error {
	rec, err := s.store.Get(ctx, GroupEscalation)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		// No escalation document: overrides stay disabled everywhere.
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load escalation settings")
	}

	var doc EscalationDoc
	if err := json.Unmarshal(rec.Document, &doc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "escalation document is not valid JSON")
	}
	next.versions[GroupEscalation] = rec.Version

	for _, entity := range doc.Entities {
		kind := id.EntityType(entity.EntityType)
		elevated := pstrings.DedupeAndTrim(entity.ElevatedRoles)
		roles := make(map[id.Role]struct{}, len(elevated))
		for _, role := range elevated {
			roles[id.Role(role)] = struct{}{}
		}
		next.elevated[kind] = roles

		if len(entity.Notifications) > 0 {
			byStatus := make(map[id.StatusCode]models.NotificationTemplate, len(entity.Notifications))
			for _, rule := range entity.Notifications {
				byStatus[id.StatusCode(rule.ToStatus)] = models.NotificationTemplate{
					Type:    rule.Type,
					Title:   rule.Title,
					Message: rule.Message,
				}
			}
			next.notifications[kind] = byStatus
		}
	}
	return nil
}

func (s *Service) recordLoad(ctx context.Context, snap *snapshot) {
	if s.recorder == nil {
		return
	}
	extra := make(map[string]string, len(snap.versions))
	for group, version := range snap.versions {
		extra[group] = strconv.Itoa(version)
	}
	_, err := s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionSettingsLoaded,
		ResourceType: "settings",
		Extra:        extra,
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to record settings load", "error", err)
	}
}

func initialStatus(entity EntityRules, def table.Definition) (id.StatusCode, error) {
	if entity.InitialStatus != "" {
		code := id.StatusCode(entity.InitialStatus)
		for _, st := range def.Statuses {
			if st.Code == code {
				return code, nil
			}
		}
		return "", dErrors.New(dErrors.CodeMalformedTable,
			fmt.Sprintf("%s: initial status %s is not a defined status", entity.EntityType, code))
	}
	if len(def.Statuses) == 0 {
		return "", dErrors.New(dErrors.CodeMalformedTable,
			fmt.Sprintf("%s: no statuses defined", entity.EntityType))
	}
	statuses := make([]models.Status, len(def.Statuses))
	copy(statuses, def.Statuses)
	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].SortOrder < statuses[j].SortOrder
	})
	return statuses[0].Code, nil
}

// current returns the serving snapshot or a CodeInternal error before the
// first successful Load.
func (s *Service) current() (*snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "settings have not been loaded")
	}
	return snap, nil
}

// TableFor implements the guard's rule lookup. A kind whose rules failed
// validation gets its own defect back; an unconfigured kind gets a generic
// one.
func (s *Service) TableFor(entityType id.EntityType) (*table.Table, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	if tbl, ok := snap.tables[entityType]; ok {
		return tbl, nil
	}
	if defect, ok := snap.broken[entityType]; ok {
		return nil, defect
	}
	return nil, dErrors.New(dErrors.CodeMalformedTable,
		fmt.Sprintf("no workflow rules configured for %s", entityType))
}

// IsElevated reports whether the role may override the transition table.
func (s *Service) IsElevated(entityType id.EntityType, role id.Role) bool {
	snap := s.snap.Load()
	if snap == nil {
		return false
	}
	roles, ok := snap.elevated[entityType]
	if !ok {
		return false
	}
	_, elevated := roles[role]
	return elevated
}

// TransitionNotification returns the notification configured for landing on
// a status.
func (s *Service) TransitionNotification(entityType id.EntityType, to id.StatusCode) (models.NotificationTemplate, bool) {
	snap := s.snap.Load()
	if snap == nil {
		return models.NotificationTemplate{}, false
	}
	byStatus, ok := snap.notifications[entityType]
	if !ok {
		return models.NotificationTemplate{}, false
	}
	tmpl, ok := byStatus[to]
	return tmpl, ok
}

// IdempotentNoOp reports the same-status policy for a kind.
func (s *Service) IdempotentNoOp(entityType id.EntityType) bool {
	snap := s.snap.Load()
	if snap == nil {
		return false
	}
	return snap.idempotent[entityType]
}

// InitialStatus reports where new entities of a kind start.
func (s *Service) InitialStatus(entityType id.EntityType) (id.StatusCode, error) {
	snap, err := s.current()
	if err != nil {
		return "", err
	}
	if initial, ok := snap.initial[entityType]; ok {
		return initial, nil
	}
	if defect, ok := snap.broken[entityType]; ok {
		return "", defect
	}
	return "", dErrors.New(dErrors.CodeMalformedTable,
		fmt.Sprintf("no workflow rules configured for %s", entityType))
}
