package services

import (
	"context"
	"strings"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HandbookServiceInterface interface {
	GetHandbooks(ctx context.Context, category string) ([]entities.Handbook, error)
	CreateHandbook(ctx context.Context, category string, payload dto.HandbookDTO) (*entities.Handbook, error)
	UpdateHandbook(ctx context.Context, category string, id uint64, payload dto.HandbookDTO) (*entities.Handbook, error)
	DeleteHandbook(ctx context.Context, category string, id uint64) error
}

type HandbookService struct {
	txManager    repositories.TxManagerInterface
	handbookRepo repositories.HandbookRepositoryInterface
	softDelete   SoftDeleteServiceInterface
	history      historyRecorder
	gate         *authz.Gatekeeper
	logger       *zap.Logger
}

func NewHandbookService(
	txManager repositories.TxManagerInterface,
	handbookRepo repositories.HandbookRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	softDelete SoftDeleteServiceInterface,
	logger *zap.Logger,
) HandbookServiceInterface {
	return &HandbookService{
		txManager:    txManager,
		handbookRepo: handbookRepo,
		softDelete:   softDelete,
		history:      newHistoryRecorder(historyRepo),
		gate:         authz.NewGatekeeper(),
		logger:       logger,
	}
}

func checkCategory(category string) error {
	if !entities.ValidHandbookCategory(category) {
		return apperrors.NewValidationError("category", "неизвестная категория справочника")
	}
	return nil
}

func (s *HandbookService) GetHandbooks(ctx context.Context, category string) ([]entities.Handbook, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceHandbook, authz.ActionView); err != nil {
		return nil, err
	}
	return s.handbookRepo.GetHandbooks(ctx, category)
}

// loadInCategory - запись должна быть живой и принадлежать категории из пути.
func (s *HandbookService) loadInCategory(ctx context.Context, tx pgx.Tx, category string, id uint64) (*entities.Handbook, error) {
	h, err := s.handbookRepo.FindHandbook(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if h.IsDeleted || h.Category != category {
		return nil, apperrors.ErrNotFound
	}
	return h, nil
}

func (s *HandbookService) CreateHandbook(ctx context.Context, category string, payload dto.HandbookDTO) (*entities.Handbook, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceHandbook, authz.ActionAdd); err != nil {
		return nil, err
	}

	var created *entities.Handbook
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.handbookRepo.CreateHandbook(ctx, tx, &entities.Handbook{Category: category, Name: strings.TrimSpace(payload.Name)})
		if err != nil {
			return err
		}
		created, err = s.handbookRepo.FindHandbook(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, created, entities.ChangeCreated, actorIDPtr(principal))
	})
	if err != nil {
		s.logger.Error("CreateHandbook: ошибка создания", zap.String("category", category), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *HandbookService) UpdateHandbook(ctx context.Context, category string, id uint64, payload dto.HandbookDTO) (*entities.Handbook, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceHandbook, authz.ActionChange); err != nil {
		return nil, err
	}

	var updated *entities.Handbook
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.loadInCategory(ctx, tx, category, id)
		if err != nil {
			return err
		}
		current.Name = strings.TrimSpace(payload.Name)
		if err := s.handbookRepo.UpdateHandbook(ctx, tx, current); err != nil {
			return err
		}
		updated, err = s.handbookRepo.FindHandbook(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, updated, entities.ChangeUpdated, actorIDPtr(principal))
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("UpdateHandbook: ошибка обновления", zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

func (s *HandbookService) DeleteHandbook(ctx context.Context, category string, id uint64) error {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceHandbook, authz.ActionDelete); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.loadInCategory(ctx, tx, category, id)
		if err != nil {
			return err
		}
		return s.softDelete.DeleteInTx(ctx, tx, current.HistoryRef(), actorIDPtr(principal))
	})
}
