package services

import (
	"context"
	"strings"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ClientServiceInterface interface {
	GetClients(ctx context.Context, filter types.Filter) ([]entities.Client, uint64, error)
	FindClient(ctx context.Context, id uint64) (*entities.Client, error)
	CreateClient(ctx context.Context, payload dto.ClientDTO) (*entities.Client, error)
	UpdateClient(ctx context.Context, id uint64, payload dto.ClientDTO) (*entities.Client, error)
	ChangeStatus(ctx context.Context, id uint64, status entities.ClientStatus) (*entities.Client, error)
	DeleteClient(ctx context.Context, id uint64) error
	ClientHistory(ctx context.Context, id uint64, order DiffOrder) ([]dto.FieldChangeDTO, error)
}

type ClientService struct {
	txManager  repositories.TxManagerInterface
	clientRepo repositories.ClientRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
	softDelete SoftDeleteServiceInterface
	historySvc HistoryServiceInterface
	history    historyRecorder
	gate       *authz.Gatekeeper
	logger     *zap.Logger
}

func NewClientService(
	txManager repositories.TxManagerInterface,
	clientRepo repositories.ClientRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	softDelete SoftDeleteServiceInterface,
	historySvc HistoryServiceInterface,
	logger *zap.Logger,
) ClientServiceInterface {
	return &ClientService{
		txManager:  txManager,
		clientRepo: clientRepo,
		userRepo:   userRepo,
		softDelete: softDelete,
		historySvc: historySvc,
		history:    newHistoryRecorder(historyRepo),
		gate:       authz.NewGatekeeper(),
		logger:     logger,
	}
}

func (s *ClientService) GetClients(ctx context.Context, filter types.Filter) ([]entities.Client, uint64, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, 0, err
	}
	scope := s.gate.Scope(principal, authz.ResourceClient, authz.ActionView)
	if scope == authz.ScopeDenied {
		return []entities.Client{}, 0, nil
	}
	clients, total, err := s.clientRepo.GetClients(ctx, filter, visibilityFor(principal, scope))
	if err != nil {
		s.logger.Error("GetClients: ошибка получения списка", zap.Error(err))
		return nil, 0, err
	}
	return clients, total, nil
}

func (s *ClientService) loadLive(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Client, error) {
	client, err := s.clientRepo.FindClient(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if client.IsDeleted {
		return nil, apperrors.ErrNotFound
	}
	return client, nil
}

func (s *ClientService) FindClient(ctx context.Context, id uint64) (*entities.Client, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	client, err := s.loadLive(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(principal, authz.ResourceClient, authz.ActionView, client); err != nil {
		return nil, err
	}
	return client, nil
}

// ClientFromDTO - карточка клиента с профилем поиска. Критерии проверяются по типу объекта.
func ClientFromDTO(d dto.ClientDTO) (*entities.Client, error) {
	client := &entities.Client{
		Fio:         strings.TrimSpace(d.Fio),
		PhoneNumber: d.PhoneNumber,
		ExtraPhone:  optString(d.ExtraPhone),
		Comment:     d.Comment,
		Status:      entities.ClientInSearch,
	}
	if d.RealtorID.Valid {
		client.RealtorID = d.RealtorID.Uint64
	}

	criteria := CriteriaFromDTO(d.Search)
	if d.ObjectKind != "" {
		kind, err := entities.ParseListingKind(d.ObjectKind)
		if err != nil {
			return nil, apperrors.NewValidationError("object_kind", err.Error())
		}
		if err := criteria.Validate(kind); err != nil {
			return nil, err
		}
		client.Search.ObjectKind = kind
	}

	p := &client.Search
	p.LocalityIDs = criteria.LocalityIDs
	p.StreetIDs = criteria.StreetIDs
	p.HouseNumber = criteria.HouseNumber
	p.FloorFrom = criteria.FloorFrom
	p.FloorTo = criteria.FloorTo
	p.Rooms = criteria.Rooms
	p.PriceFrom = criteria.PriceFrom
	p.PriceTo = criteria.PriceTo
	p.PricePerAreaMax = criteria.PricePerAreaMax
	p.ConditionIDs = criteria.ConditionIDs
	p.NotFirstFloor = criteria.NotFirstFloor
	p.NotLastFloor = criteria.NotLastFloor
	p.Keyword = criteria.Keyword
	return client, nil
}

func (s *ClientService) CreateClient(ctx context.Context, payload dto.ClientDTO) (*entities.Client, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	scope, err := s.gate.RequireAny(principal, authz.ResourceClient, authz.ActionAdd)
	if err != nil {
		return nil, err
	}
	client, err := ClientFromDTO(payload)
	if err != nil {
		return nil, err
	}
	if client.RealtorID == 0 {
		client.RealtorID = principal.Actor.ID
	}
	if err := checkRealtor(ctx, s.userRepo, principal, scope, client.RealtorID); err != nil {
		return nil, err
	}

	var created *entities.Client
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.clientRepo.CreateClient(ctx, tx, client)
		if err != nil {
			return err
		}
		created, err = s.clientRepo.FindClient(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, created, entities.ChangeCreated, actorIDPtr(principal))
	})
	if err != nil {
		s.logger.Error("CreateClient: ошибка создания", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Клиент создан", zap.Uint64("id", created.ID), zap.Uint64("realtorID", created.RealtorID))
	return created, nil
}

// UpdateClient заменяет карточку целиком. Статус меняется только через ChangeStatus.
func (s *ClientService) UpdateClient(ctx context.Context, id uint64, payload dto.ClientDTO) (*entities.Client, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	next, err := ClientFromDTO(payload)
	if err != nil {
		return nil, err
	}

	var updated *entities.Client
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.loadLive(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.gate.Require(principal, authz.ResourceClient, authz.ActionChange, current); err != nil {
			return err
		}
		next.ID = current.ID
		next.Status = current.Status
		if next.RealtorID == 0 {
			next.RealtorID = current.RealtorID
		}
		if next.RealtorID != current.RealtorID {
			scope := s.gate.Scope(principal, authz.ResourceClient, authz.ActionChange)
			if err := checkRealtor(ctx, s.userRepo, principal, scope, next.RealtorID); err != nil {
				return err
			}
		}
		if err := s.clientRepo.UpdateClient(ctx, tx, next); err != nil {
			return err
		}
		updated, err = s.clientRepo.FindClient(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, updated, entities.ChangeUpdated, actorIDPtr(principal))
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("UpdateClient: ошибка обновления", zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

func (s *ClientService) ChangeStatus(ctx context.Context, id uint64, status entities.ClientStatus) (*entities.Client, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", "неизвестный статус")
	}

	var updated *entities.Client
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.loadLive(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.gate.Require(principal, authz.ResourceClient, authz.ActionChange, current); err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return apperrors.NewValidationError("status", "переход "+string(current.Status)+" -> "+string(status)+" недопустим")
		}
		if err := s.clientRepo.UpdateStatus(ctx, tx, id, status); err != nil {
			return err
		}
		current.Status = status
		updated = current
		return s.history.Record(ctx, tx, updated, entities.ChangeUpdated, actorIDPtr(principal))
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("ChangeStatus: ошибка смены статуса", zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("Статус клиента изменён", zap.Uint64("id", id), zap.String("status", string(status)))
	return updated, nil
}

func (s *ClientService) DeleteClient(ctx context.Context, id uint64) error {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.loadLive(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.gate.Require(principal, authz.ResourceClient, authz.ActionDelete, current); err != nil {
			return err
		}
		return s.softDelete.DeleteInTx(ctx, tx, current.HistoryRef(), actorIDPtr(principal))
	})
}

func (s *ClientService) ClientHistory(ctx context.Context, id uint64, order DiffOrder) ([]dto.FieldChangeDTO, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindClient(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(principal, authz.ResourceClient, authz.ActionViewHistory, client); err != nil {
		return nil, err
	}
	changes, err := s.historySvc.Diff(ctx, client.HistoryRef(), order)
	if err != nil {
		return nil, err
	}
	return fieldChangesToDTO(changes), nil
}
