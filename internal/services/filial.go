package services

import (
	"context"
	"strings"
	"time"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FilialServiceInterface interface {
	GetFilials(ctx context.Context, filter types.Filter) ([]entities.FilialAgency, uint64, error)
	FindFilial(ctx context.Context, id uint64) (*entities.FilialAgency, error)
	CreateFilial(ctx context.Context, payload dto.FilialDTO) (*entities.FilialAgency, error)
	UpdateFilial(ctx context.Context, id uint64, payload dto.FilialDTO) (*entities.FilialAgency, error)
	// DeleteFilial не пройдёт, пока у филиала есть живые отчёты.
	DeleteFilial(ctx context.Context, id uint64) error

	GetFilialReports(ctx context.Context, filialID uint64) ([]entities.FilialReport, error)
	CreateFilialReport(ctx context.Context, filialID uint64, payload dto.FilialReportDTO) (*entities.FilialReport, error)
	DeleteFilialReport(ctx context.Context, id uint64) error
}

type FilialService struct {
	txManager  repositories.TxManagerInterface
	filialRepo repositories.FilialRepositoryInterface
	softDelete SoftDeleteServiceInterface
	history    historyRecorder
	gate       *authz.Gatekeeper
	logger     *zap.Logger
}

func NewFilialService(
	txManager repositories.TxManagerInterface,
	filialRepo repositories.FilialRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	softDelete SoftDeleteServiceInterface,
	logger *zap.Logger,
) FilialServiceInterface {
	return &FilialService{
		txManager:  txManager,
		filialRepo: filialRepo,
		softDelete: softDelete,
		history:    newHistoryRecorder(historyRepo),
		gate:       authz.NewGatekeeper(),
		logger:     logger,
	}
}

func (s *FilialService) GetFilials(ctx context.Context, filter types.Filter) ([]entities.FilialAgency, uint64, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, 0, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialAgency, authz.ActionView); err != nil {
		return nil, 0, err
	}
	return s.filialRepo.GetFilials(ctx, filter)
}

func (s *FilialService) loadLive(ctx context.Context, tx pgx.Tx, id uint64) (*entities.FilialAgency, error) {
	filial, err := s.filialRepo.FindFilial(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if filial.IsDeleted {
		return nil, apperrors.ErrNotFound
	}
	return filial, nil
}

func (s *FilialService) FindFilial(ctx context.Context, id uint64) (*entities.FilialAgency, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialAgency, authz.ActionView); err != nil {
		return nil, err
	}
	return s.loadLive(ctx, nil, id)
}

func filialFromDTO(d dto.FilialDTO) *entities.FilialAgency {
	return &entities.FilialAgency{
		Name:        strings.TrimSpace(d.Name),
		Address:     optString(d.Address),
		PhoneNumber: optString(d.PhoneNumber),
		Email:       optString(d.Email),
	}
}

func (s *FilialService) CreateFilial(ctx context.Context, payload dto.FilialDTO) (*entities.FilialAgency, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialAgency, authz.ActionAdd); err != nil {
		return nil, err
	}

	var created *entities.FilialAgency
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.filialRepo.CreateFilial(ctx, tx, filialFromDTO(payload))
		if err != nil {
			return err
		}
		created, err = s.filialRepo.FindFilial(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, created, entities.ChangeCreated, actorIDPtr(principal))
	})
	if err != nil {
		s.logger.Error("CreateFilial: ошибка создания", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Филиал создан", zap.Uint64("id", created.ID))
	return created, nil
}

func (s *FilialService) UpdateFilial(ctx context.Context, id uint64, payload dto.FilialDTO) (*entities.FilialAgency, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialAgency, authz.ActionChange); err != nil {
		return nil, err
	}

	var updated *entities.FilialAgency
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadLive(ctx, tx, id); err != nil {
			return err
		}
		next := filialFromDTO(payload)
		next.ID = id
		if err := s.filialRepo.UpdateFilial(ctx, tx, next); err != nil {
			return err
		}
		updated, err = s.filialRepo.FindFilial(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, updated, entities.ChangeUpdated, actorIDPtr(principal))
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("UpdateFilial: ошибка обновления", zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

func (s *FilialService) DeleteFilial(ctx context.Context, id uint64) error {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialAgency, authz.ActionDelete); err != nil {
		return err
	}
	return s.softDelete.SoftDelete(ctx, entities.EntityRef{Type: entities.EntityFilialAgency, ID: id}, actorIDPtr(principal))
}

func (s *FilialService) GetFilialReports(ctx context.Context, filialID uint64) ([]entities.FilialReport, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialReport, authz.ActionView); err != nil {
		return nil, err
	}
	if _, err := s.loadLive(ctx, nil, filialID); err != nil {
		return nil, err
	}
	return s.filialRepo.GetFilialReports(ctx, filialID)
}

func (s *FilialService) CreateFilialReport(ctx context.Context, filialID uint64, payload dto.FilialReportDTO) (*entities.FilialReport, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialReport, authz.ActionAdd); err != nil {
		return nil, err
	}

	from, errFrom := time.Parse("2006-01-02", payload.PeriodFrom)
	to, errTo := time.Parse("2006-01-02", payload.PeriodTo)
	verr := &apperrors.ValidationError{}
	if errFrom != nil {
		verr.Add("period_from", "дата в формате ГГГГ-ММ-ДД")
	}
	if errTo != nil {
		verr.Add("period_to", "дата в формате ГГГГ-ММ-ДД")
	}
	if errFrom == nil && errTo == nil && from.After(to) {
		verr.Add("period_from", "позже period_to")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var created *entities.FilialReport
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Отчёт к удалённому филиалу не создаётся
		if _, err := s.loadLive(ctx, tx, filialID); err != nil {
			return err
		}
		id, err := s.filialRepo.CreateFilialReport(ctx, tx, &entities.FilialReport{
			FilialID:   filialID,
			AuthorID:   principal.Actor.ID,
			Title:      strings.TrimSpace(payload.Title),
			Body:       payload.Body,
			PeriodFrom: from,
			PeriodTo:   to,
		})
		if err != nil {
			return err
		}
		created, err = s.filialRepo.FindFilialReport(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, created, entities.ChangeCreated, actorIDPtr(principal))
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("CreateFilialReport: ошибка создания", zap.Uint64("filialID", filialID), zap.Error(err))
		}
		return nil, err
	}
	return created, nil
}

func (s *FilialService) DeleteFilialReport(ctx context.Context, id uint64) error {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceFilialReport, authz.ActionDelete); err != nil {
		return err
	}
	return s.softDelete.SoftDelete(ctx, entities.EntityRef{Type: entities.EntityFilialReport, ID: id}, actorIDPtr(principal))
}
