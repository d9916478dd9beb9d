package services

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"time"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DiffOrder - порядок выдачи изменений.
type DiffOrder int

const (
	OldestFirst DiffOrder = iota
	NewestFirst
)

func ParseDiffOrder(s string) DiffOrder {
	if s == "desc" || s == "newest" {
		return NewestFirst
	}
	return OldestFirst
}

// historyRecorder пишет снимки внутри транзакции вызывающего сервиса.
type historyRecorder struct {
	repo repositories.HistoryRepositoryInterface
}

func newHistoryRecorder(repo repositories.HistoryRepositoryInterface) historyRecorder {
	return historyRecorder{repo: repo}
}

func (h historyRecorder) Record(ctx context.Context, tx pgx.Tx, entity entities.Historized, changeType string, changedBy *uint64) error {
	snapshot := &entities.HistorySnapshot{
		Ref:        entity.HistoryRef(),
		ChangeType: changeType,
		ChangeSet:  uuid.New(),
		Fields:     entity.HistoryFields(),
		ChangedBy:  changedBy,
		ChangedAt:  time.Now(),
	}
	if err := h.repo.AppendSnapshot(ctx, tx, snapshot); err != nil {
		return fmt.Errorf("запись истории %s/%d: %w", snapshot.Ref.Type, snapshot.Ref.ID, err)
	}
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// diffFields - изменённые поля между двумя наборами, по имени поля.
func diffFields(prev, cur map[string]*string) []string {
	seen := make(map[string]struct{}, len(cur))
	var changed []string
	for name, value := range cur {
		seen[name] = struct{}{}
		if !samePtr(prev[name], value) {
			changed = append(changed, name)
		}
	}
	for name, value := range prev {
		if _, ok := seen[name]; ok {
			continue
		}
		if value != nil {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// DiffSnapshots строит изменения между соседними снимками. Снимки на входе от старых к новым.
func DiffSnapshots(snapshots []entities.HistorySnapshot, order DiffOrder) []entities.FieldChange {
	var groups [][]entities.FieldChange
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		var group []entities.FieldChange
		for _, name := range diffFields(prev.Fields, cur.Fields) {
			group = append(group, entities.FieldChange{
				Ref:          cur.Ref,
				Version:      cur.Version,
				Field:        name,
				OldValue:     prev.Fields[name],
				NewValue:     cur.Fields[name],
				ChangedAt:    cur.ChangedAt,
				ChangedBy:    cur.ChangedBy,
				ChangedByFio: cur.ChangedByFio,
			})
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}

	if order == NewestFirst {
		for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
			groups[i], groups[j] = groups[j], groups[i]
		}
	}
	var out []entities.FieldChange
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// ApplyDiffs восстанавливает поля последней версии из первой и списка изменений
// (в любом порядке: применяются по возрастанию версии).
func ApplyDiffs(oldest map[string]*string, diffs []entities.FieldChange) map[string]*string {
	fields := make(map[string]*string, len(oldest))
	for k, v := range oldest {
		fields[k] = v
	}

	ordered := make([]entities.FieldChange, len(diffs))
	copy(ordered, diffs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for _, d := range ordered {
		fields[d.Field] = d.NewValue
	}
	return fields
}

// --- k-way merge потоков истории ---

type streamCursor struct {
	stream []entities.HistoryEntry
	pos    int
}

// newerFirst - порядок сводного отчёта: по времени, затем по id снимка.
func newerFirst(a, b *entities.HistorySnapshot) bool {
	if !a.ChangedAt.Equal(b.ChangedAt) {
		return a.ChangedAt.After(b.ChangedAt)
	}
	return a.ID > b.ID
}

type cursorHeap []*streamCursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	return newerFirst(&h[i].stream[h[i].pos].Snapshot, &h[j].stream[h[j].pos].Snapshot)
}
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x interface{}) { *h = append(*h, x.(*streamCursor)) }
func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeNewestFirst сливает потоки, каждый из которых уже отсортирован от новых к старым.
func MergeNewestFirst(streams ...[]entities.HistoryEntry) []entities.HistoryEntry {
	h := make(cursorHeap, 0, len(streams))
	total := 0
	for _, s := range streams {
		if len(s) > 0 {
			h = append(h, &streamCursor{stream: s})
			total += len(s)
		}
	}
	heap.Init(&h)

	out := make([]entities.HistoryEntry, 0, total)
	for h.Len() > 0 {
		top := h[0]
		out = append(out, top.stream[top.pos])
		top.pos++
		if top.pos == len(top.stream) {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}
	return out
}

// --- сервис ---

type HistoryServiceInterface interface {
	// Diff - изменения сущности; права проверяет вызывающий сервис.
	Diff(ctx context.Context, ref entities.EntityRef, order DiffOrder) ([]entities.FieldChange, error)
	Report(ctx context.Context, from, to *time.Time) ([]dto.HistoryReportRowDTO, error)
}

type HistoryService struct {
	historyRepo repositories.HistoryRepositoryInterface
	logger      *zap.Logger
}

func NewHistoryService(historyRepo repositories.HistoryRepositoryInterface, logger *zap.Logger) HistoryServiceInterface {
	return &HistoryService{historyRepo: historyRepo, logger: logger}
}

func (s *HistoryService) Diff(ctx context.Context, ref entities.EntityRef, order DiffOrder) ([]entities.FieldChange, error) {
	snapshots, err := s.historyRepo.GetSnapshots(ctx, ref)
	if err != nil {
		s.logger.Error("Diff: не удалось получить снимки", zap.String("type", string(ref.Type)), zap.Uint64("id", ref.ID), zap.Error(err))
		return nil, err
	}
	return DiffSnapshots(snapshots, order), nil
}

func (s *HistoryService) Report(ctx context.Context, from, to *time.Time) ([]dto.HistoryReportRowDTO, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, apperrors.NewValidationError("date_from", "дата начала позже даты окончания")
	}

	var streams [][]entities.HistoryEntry
	for _, kind := range entities.ListingKinds {
		scope := authz.ResolveScope(principal, authz.ListingResource(kind), authz.ActionViewHistory)
		if scope == authz.ScopeDenied {
			continue
		}
		vis := visibilityFor(principal, scope)
		vis.IncludeDeleted = true
		stream, err := s.historyRepo.GetListingHistory(ctx, kind, from, to, vis)
		if err != nil {
			s.logger.Error("Report: не удалось получить историю", zap.String("kind", string(kind)), zap.Error(err))
			return nil, err
		}
		streams = append(streams, stream)
	}

	merged := MergeNewestFirst(streams...)
	rows := make([]dto.HistoryReportRowDTO, 0, len(merged))
	for _, entry := range merged {
		rows = append(rows, reportRow(entry))
	}
	return rows, nil
}

func reportRow(entry entities.HistoryEntry) dto.HistoryReportRowDTO {
	snap := entry.Snapshot
	row := dto.HistoryReportRowDTO{
		Kind:         string(snap.Ref.Type),
		ListingID:    snap.Ref.ID,
		ChangeType:   snap.ChangeType,
		ChangedAt:    snap.ChangedAt.Format(time.RFC3339),
		ChangedByFio: snap.ChangedByFio,
		Changes:      []dto.FieldChangeDTO{},
	}
	for _, name := range diffFields(entry.Previous, snap.Fields) {
		row.Changes = append(row.Changes, dto.FieldChangeDTO{
			Version:      snap.Version,
			Field:        name,
			OldValue:     entry.Previous[name],
			NewValue:     snap.Fields[name],
			ChangedAt:    row.ChangedAt,
			ChangedBy:    snap.ChangedBy,
			ChangedByFio: snap.ChangedByFio,
		})
	}
	return row
}

func fieldChangesToDTO(changes []entities.FieldChange) []dto.FieldChangeDTO {
	out := make([]dto.FieldChangeDTO, 0, len(changes))
	for _, c := range changes {
		out = append(out, dto.FieldChangeDTO{
			Version:      c.Version,
			Field:        c.Field,
			OldValue:     c.OldValue,
			NewValue:     c.NewValue,
			ChangedAt:    c.ChangedAt.Format(time.RFC3339),
			ChangedBy:    c.ChangedBy,
			ChangedByFio: c.ChangedByFio,
		})
	}
	return out
}
