package services

import (
	"context"
	"errors"
	"fmt"

	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SnapshotLoader перечитывает сущность внутри транзакции для снимка "-".
type SnapshotLoader func(ctx context.Context, tx pgx.Tx, id uint64) (entities.Historized, error)

// SnapshotLoaders - загрузчики для исторических типов. Тип без загрузчика не историзуется.
type SnapshotLoaders map[entities.EntityType]SnapshotLoader

func NewSnapshotLoaders(
	listingRepo repositories.ListingRepositoryInterface,
	clientRepo repositories.ClientRepositoryInterface,
	filialRepo repositories.FilialRepositoryInterface,
	referenceRepo repositories.ReferenceRepositoryInterface,
	handbookRepo repositories.HandbookRepositoryInterface,
) SnapshotLoaders {
	loaders := SnapshotLoaders{
		entities.EntityClient: func(ctx context.Context, tx pgx.Tx, id uint64) (entities.Historized, error) {
			return clientRepo.FindClient(ctx, tx, id)
		},
		entities.EntityFilialAgency: func(ctx context.Context, tx pgx.Tx, id uint64) (entities.Historized, error) {
			return filialRepo.FindFilial(ctx, tx, id)
		},
		entities.EntityFilialReport: func(ctx context.Context, tx pgx.Tx, id uint64) (entities.Historized, error) {
			return filialRepo.FindFilialReport(ctx, tx, id)
		},
		entities.EntityHandbook: func(ctx context.Context, tx pgx.Tx, id uint64) (entities.Historized, error) {
			return handbookRepo.FindHandbook(ctx, tx, id)
		},
	}
	for _, kind := range entities.ListingKinds {
		kind := kind
		loaders[kind.EntityType()] = func(ctx context.Context, tx pgx.Tx, id uint64) (entities.Historized, error) {
			return listingRepo.FindListing(ctx, tx, kind, id)
		}
	}
	for _, kind := range []entities.ReferenceKind{entities.RefRegion, entities.RefDistrict, entities.RefLocality, entities.RefStreet} {
		kind := kind
		loaders[kind.EntityType()] = func(ctx context.Context, tx pgx.Tx, id uint64) (entities.Historized, error) {
			return referenceRepo.FindReference(ctx, tx, kind, id)
		}
	}
	return loaders
}

type SoftDeleteServiceInterface interface {
	// SoftDelete - в собственной транзакции.
	SoftDelete(ctx context.Context, ref entities.EntityRef, changedBy *uint64) error
	// DeleteInTx - в транзакции вызывающего (проверка прав и удаление атомарны).
	DeleteInTx(ctx context.Context, tx pgx.Tx, ref entities.EntityRef, changedBy *uint64) error
}

type SoftDeleteService struct {
	txManager repositories.TxManagerInterface
	repo      repositories.SoftDeleteRepositoryInterface
	history   historyRecorder
	loaders   SnapshotLoaders
	logger    *zap.Logger
}

func NewSoftDeleteService(
	txManager repositories.TxManagerInterface,
	repo repositories.SoftDeleteRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	loaders SnapshotLoaders,
	logger *zap.Logger,
) SoftDeleteServiceInterface {
	return &SoftDeleteService{
		txManager: txManager,
		repo:      repo,
		history:   newHistoryRecorder(historyRepo),
		loaders:   loaders,
		logger:    logger,
	}
}

func (s *SoftDeleteService) SoftDelete(ctx context.Context, ref entities.EntityRef, changedBy *uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.DeleteInTx(ctx, tx, ref, changedBy)
	})
}

func (s *SoftDeleteService) DeleteInTx(ctx context.Context, tx pgx.Tx, ref entities.EntityRef, changedBy *uint64) error {
	logger := s.logger.With(zap.String("type", string(ref.Type)), zap.Uint64("id", ref.ID))

	// 1. Сущность существует и ещё не удалена
	if err := s.repo.LockLive(ctx, tx, ref); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("SoftDelete: ошибка блокировки", zap.Error(err))
		}
		return err
	}

	// 2. Живые зависимые записи
	rel, err := s.repo.FindLiveRelation(ctx, tx, ref)
	if err != nil {
		logger.Error("SoftDelete: ошибка проверки связей", zap.Error(err))
		return err
	}
	if rel != nil {
		logger.Warn("SoftDelete: есть связанные записи", zap.String("relation", rel.Name()))
		return apperrors.NewReferentialIntegrityError(string(ref.Type), rel.Name())
	}

	// 3. Флаг и снимок "-"
	if err := s.repo.MarkDeleted(ctx, tx, ref); err != nil {
		return err
	}
	load, historized := s.loaders[ref.Type]
	if !historized {
		return nil
	}
	entity, err := load(ctx, tx, ref.ID)
	if err != nil {
		return fmt.Errorf("перечитывание %s #%d: %w", ref.Type, ref.ID, err)
	}
	return s.history.Record(ctx, tx, entity, entities.ChangeDeleted, changedBy)
}
