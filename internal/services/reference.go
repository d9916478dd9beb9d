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

// Адресные справочники: права только глобальные.
type ReferenceServiceInterface interface {
	GetReferences(ctx context.Context, kind entities.ReferenceKind, filter types.Filter) ([]entities.Reference, uint64, error)
	FindReference(ctx context.Context, kind entities.ReferenceKind, id uint64) (*entities.Reference, error)
	CreateReference(ctx context.Context, kind entities.ReferenceKind, payload dto.ReferenceDTO) (*entities.Reference, error)
	UpdateReference(ctx context.Context, kind entities.ReferenceKind, id uint64, payload dto.ReferenceDTO) (*entities.Reference, error)
	DeleteReference(ctx context.Context, kind entities.ReferenceKind, id uint64) error
}

type ReferenceService struct {
	txManager     repositories.TxManagerInterface
	referenceRepo repositories.ReferenceRepositoryInterface
	softDelete    SoftDeleteServiceInterface
	history       historyRecorder
	gate          *authz.Gatekeeper
	logger        *zap.Logger
}

func NewReferenceService(
	txManager repositories.TxManagerInterface,
	referenceRepo repositories.ReferenceRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	softDelete SoftDeleteServiceInterface,
	logger *zap.Logger,
) ReferenceServiceInterface {
	return &ReferenceService{
		txManager:     txManager,
		referenceRepo: referenceRepo,
		softDelete:    softDelete,
		history:       newHistoryRecorder(historyRepo),
		gate:          authz.NewGatekeeper(),
		logger:        logger,
	}
}

func (s *ReferenceService) GetReferences(ctx context.Context, kind entities.ReferenceKind, filter types.Filter) ([]entities.Reference, uint64, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, 0, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ReferenceResource(kind), authz.ActionView); err != nil {
		return nil, 0, err
	}
	return s.referenceRepo.GetReferences(ctx, kind, filter)
}

func (s *ReferenceService) loadLive(ctx context.Context, tx pgx.Tx, kind entities.ReferenceKind, id uint64) (*entities.Reference, error) {
	ref, err := s.referenceRepo.FindReference(ctx, tx, kind, id)
	if err != nil {
		return nil, err
	}
	if ref.IsDeleted {
		return nil, apperrors.ErrNotFound
	}
	return ref, nil
}

func (s *ReferenceService) FindReference(ctx context.Context, kind entities.ReferenceKind, id uint64) (*entities.Reference, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ReferenceResource(kind), authz.ActionView); err != nil {
		return nil, err
	}
	return s.loadLive(ctx, nil, kind, id)
}

// ReferenceFromDTO - у каждого вида свой набор обязательных родителей.
func ReferenceFromDTO(kind entities.ReferenceKind, d dto.ReferenceDTO) (*entities.Reference, error) {
	verr := &apperrors.ValidationError{}
	ref := &entities.Reference{
		Kind:       kind,
		Name:       strings.TrimSpace(d.Name),
		RegionID:   optUint(d.RegionID),
		DistrictID: optUint(d.DistrictID),
		LocalityID: optUint(d.LocalityID),
	}
	if ref.Name == "" {
		verr.Add("name", "обязательное поле")
	}

	switch kind {
	case entities.RefRegion:
		if d.RegionID.Valid || d.DistrictID.Valid || d.LocalityID.Valid {
			verr.Add("region_id", "у региона нет родителя")
		}
	case entities.RefDistrict:
		if !d.RegionID.Valid {
			verr.Add("region_id", "обязательное поле")
		}
		if d.DistrictID.Valid || d.LocalityID.Valid {
			verr.Add("locality_id", "не применимо к району")
		}
	case entities.RefLocality:
		if !d.RegionID.Valid {
			verr.Add("region_id", "обязательное поле")
		}
		if d.LocalityID.Valid {
			verr.Add("locality_id", "не применимо к населённому пункту")
		}
	case entities.RefStreet:
		if !d.LocalityID.Valid {
			verr.Add("locality_id", "обязательное поле")
		}
		if d.RegionID.Valid || d.DistrictID.Valid {
			verr.Add("region_id", "не применимо к улице")
		}
	default:
		verr.Add("kind", "неизвестный справочник")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *ReferenceService) CreateReference(ctx context.Context, kind entities.ReferenceKind, payload dto.ReferenceDTO) (*entities.Reference, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ReferenceResource(kind), authz.ActionAdd); err != nil {
		return nil, err
	}
	ref, err := ReferenceFromDTO(kind, payload)
	if err != nil {
		return nil, err
	}

	var created *entities.Reference
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.referenceRepo.CreateReference(ctx, tx, ref)
		if err != nil {
			return err
		}
		created, err = s.referenceRepo.FindReference(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, created, entities.ChangeCreated, actorIDPtr(principal))
	})
	if err != nil {
		s.logger.Error("CreateReference: ошибка создания", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *ReferenceService) UpdateReference(ctx context.Context, kind entities.ReferenceKind, id uint64, payload dto.ReferenceDTO) (*entities.Reference, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ReferenceResource(kind), authz.ActionChange); err != nil {
		return nil, err
	}
	next, err := ReferenceFromDTO(kind, payload)
	if err != nil {
		return nil, err
	}

	var updated *entities.Reference
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadLive(ctx, tx, kind, id); err != nil {
			return err
		}
		next.ID = id
		if err := s.referenceRepo.UpdateReference(ctx, tx, next); err != nil {
			return err
		}
		updated, err = s.referenceRepo.FindReference(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, updated, entities.ChangeUpdated, actorIDPtr(principal))
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("UpdateReference: ошибка обновления", zap.String("kind", string(kind)), zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

func (s *ReferenceService) DeleteReference(ctx context.Context, kind entities.ReferenceKind, id uint64) error {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return err
	}
	if err := s.gate.RequireGlobal(principal, authz.ReferenceResource(kind), authz.ActionDelete); err != nil {
		return err
	}
	return s.softDelete.SoftDelete(ctx, entities.EntityRef{Type: kind.EntityType(), ID: id}, actorIDPtr(principal))
}
