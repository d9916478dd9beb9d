package services

import (
	"context"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ListingServiceInterface interface {
	GetListings(ctx context.Context, kind entities.ListingKind, filter types.Filter) ([]entities.Listing, uint64, error)
	FindListing(ctx context.Context, kind entities.ListingKind, id uint64) (*entities.Listing, error)
	CreateListing(ctx context.Context, kind entities.ListingKind, payload dto.ListingDTO) (*entities.Listing, error)
	UpdateListing(ctx context.Context, kind entities.ListingKind, id uint64, payload dto.ListingDTO) (*entities.Listing, error)
	DeleteListing(ctx context.Context, kind entities.ListingKind, id uint64) error
	ListingHistory(ctx context.Context, kind entities.ListingKind, id uint64, order DiffOrder) ([]dto.FieldChangeDTO, error)
}

type ListingService struct {
	txManager   repositories.TxManagerInterface
	listingRepo repositories.ListingRepositoryInterface
	userRepo    repositories.UserRepositoryInterface
	softDelete  SoftDeleteServiceInterface
	historySvc  HistoryServiceInterface
	history     historyRecorder
	gate        *authz.Gatekeeper
	logger      *zap.Logger
}

func NewListingService(
	txManager repositories.TxManagerInterface,
	listingRepo repositories.ListingRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	softDelete SoftDeleteServiceInterface,
	historySvc HistoryServiceInterface,
	logger *zap.Logger,
) ListingServiceInterface {
	return &ListingService{
		txManager:   txManager,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		softDelete:  softDelete,
		historySvc:  historySvc,
		history:     newHistoryRecorder(historyRepo),
		gate:        authz.NewGatekeeper(),
		logger:      logger,
	}
}

// GetListings - объекты, видимые принципалу. При DENIED - пустой список.
func (s *ListingService) GetListings(ctx context.Context, kind entities.ListingKind, filter types.Filter) ([]entities.Listing, uint64, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, 0, err
	}
	scope := s.gate.Scope(principal, authz.ListingResource(kind), authz.ActionView)
	if scope == authz.ScopeDenied {
		return []entities.Listing{}, 0, nil
	}

	listings, total, err := s.listingRepo.GetListings(ctx, kind, filter, visibilityFor(principal, scope))
	if err != nil {
		s.logger.Error("GetListings: ошибка получения списка", zap.String("kind", string(kind)), zap.Error(err))
		return nil, 0, err
	}
	return listings, total, nil
}

func (s *ListingService) loadLive(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, id uint64) (*entities.Listing, error) {
	listing, err := s.listingRepo.FindListing(ctx, tx, kind, id)
	if err != nil {
		return nil, err
	}
	if listing.IsDeleted {
		return nil, apperrors.ErrNotFound
	}
	return listing, nil
}

func (s *ListingService) FindListing(ctx context.Context, kind entities.ListingKind, id uint64) (*entities.Listing, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	listing, err := s.loadLive(ctx, nil, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(principal, authz.ListingResource(kind), authz.ActionView, listing); err != nil {
		s.logger.Warn("FindListing: доступ запрещён", zap.Uint64("id", id), zap.Uint64("actor", principal.Actor.ID))
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) CreateListing(ctx context.Context, kind entities.ListingKind, payload dto.ListingDTO) (*entities.Listing, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	scope, err := s.gate.RequireAny(principal, authz.ListingResource(kind), authz.ActionAdd)
	if err != nil {
		return nil, err
	}

	listing, err := ListingFromDTO(kind, payload)
	if err != nil {
		return nil, err
	}
	if listing.RealtorID == 0 {
		listing.RealtorID = principal.Actor.ID
	}
	if err := checkRealtor(ctx, s.userRepo, principal, scope, listing.RealtorID); err != nil {
		return nil, err
	}

	var created *entities.Listing
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.listingRepo.CreateListing(ctx, tx, listing)
		if err != nil {
			return err
		}
		created, err = s.listingRepo.FindListing(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, created, entities.ChangeCreated, actorIDPtr(principal))
	})
	if err != nil {
		s.logger.Error("CreateListing: ошибка создания", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Объект создан", zap.String("kind", string(kind)), zap.Uint64("id", created.ID))
	return created, nil
}

func (s *ListingService) UpdateListing(ctx context.Context, kind entities.ListingKind, id uint64, payload dto.ListingDTO) (*entities.Listing, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	next, err := ListingFromDTO(kind, payload)
	if err != nil {
		return nil, err
	}

	var updated *entities.Listing
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.loadLive(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		resource := authz.ListingResource(kind)
		if err := s.gate.Require(principal, resource, authz.ActionChange, current); err != nil {
			return err
		}

		next.ID = current.ID
		next.InSelection = current.InSelection
		if next.RealtorID == 0 {
			next.RealtorID = current.RealtorID
		}
		if next.RealtorID != current.RealtorID {
			scope := s.gate.Scope(principal, resource, authz.ActionChange)
			if err := checkRealtor(ctx, s.userRepo, principal, scope, next.RealtorID); err != nil {
				return err
			}
		}

		if err := s.listingRepo.UpdateListing(ctx, tx, next); err != nil {
			return err
		}
		updated, err = s.listingRepo.FindListing(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		return s.history.Record(ctx, tx, updated, entities.ChangeUpdated, actorIDPtr(principal))
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("UpdateListing: ошибка обновления", zap.String("kind", string(kind)), zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

func (s *ListingService) DeleteListing(ctx context.Context, kind entities.ListingKind, id uint64) error {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.loadLive(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if err := s.gate.Require(principal, authz.ListingResource(kind), authz.ActionDelete, current); err != nil {
			s.logger.Warn("DeleteListing: доступ запрещён", zap.Uint64("id", id), zap.Uint64("actor", principal.Actor.ID))
			return err
		}
		return s.softDelete.DeleteInTx(ctx, tx, current.HistoryRef(), actorIDPtr(principal))
	})
}

// ListingHistory доступна и для удалённых объектов.
func (s *ListingService) ListingHistory(ctx context.Context, kind entities.ListingKind, id uint64, order DiffOrder) ([]dto.FieldChangeDTO, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	listing, err := s.listingRepo.FindListing(ctx, nil, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(principal, authz.ListingResource(kind), authz.ActionViewHistory, listing); err != nil {
		return nil, err
	}
	changes, err := s.historySvc.Diff(ctx, listing.HistoryRef(), order)
	if err != nil {
		return nil, err
	}
	return fieldChangesToDTO(changes), nil
}

// --- DTO -> Listing ---

func optUint(v null.Uint64) *uint64 {
	if !v.Valid {
		return nil
	}
	n := v.Uint64
	return &n
}

func optFloat(v null.Float64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func optString(v null.String) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// ListingFromDTO собирает объект нужного типа; поля чужого типа - ошибка валидации.
func ListingFromDTO(kind entities.ListingKind, d dto.ListingDTO) (*entities.Listing, error) {
	verr := &apperrors.ValidationError{}
	required := func(field string, ok bool) {
		if !ok {
			verr.Add(field, "обязательное поле для типа "+string(kind))
		}
	}
	forbidden := func(field string, set bool) {
		if set {
			verr.Add(field, "не применимо к типу "+string(kind))
		}
	}

	listing := &entities.Listing{
		Kind:        kind,
		LocalityID:  d.LocalityID,
		StreetID:    optUint(d.StreetID),
		HouseNumber: d.HouseNumber,
		Area:        d.Area,
		Price:       d.Price,
		Status:      entities.ListingStatus(d.Status),
		Comment:     d.Comment,
		ClientID:    optUint(d.ClientID),
		FilialID:    optUint(d.FilialID),
	}
	if d.RealtorID.Valid {
		listing.RealtorID = d.RealtorID.Uint64
	}
	if !listing.Status.Valid() {
		verr.Add("status", "неизвестный статус")
	}

	switch kind {
	case entities.KindApartment:
		required("floor", d.Floor.Valid)
		required("storeys_number", d.StoreysNumber.Valid)
		required("rooms", d.Rooms.Valid)
		forbidden("land_area", d.LandArea.Valid)
		forbidden("purpose", d.Purpose.Valid)
		forbidden("cadastral_number", d.CadastralNumber.Valid)
		listing.Apartment = &entities.ApartmentDetails{
			Floor:         d.Floor.Int,
			StoreysNumber: d.StoreysNumber.Int,
			Rooms:         d.Rooms.Int,
			ConditionID:   optUint(d.ConditionID),
			MaterialID:    optUint(d.MaterialID),
			KitchenArea:   optFloat(d.KitchenArea),
		}
	case entities.KindCommerce:
		required("floor", d.Floor.Valid)
		required("storeys_number", d.StoreysNumber.Valid)
		forbidden("rooms", d.Rooms.Valid)
		forbidden("material_id", d.MaterialID.Valid)
		forbidden("kitchen_area", d.KitchenArea.Valid)
		forbidden("land_area", d.LandArea.Valid)
		forbidden("cadastral_number", d.CadastralNumber.Valid)
		listing.Commerce = &entities.CommerceDetails{
			Floor:         d.Floor.Int,
			StoreysNumber: d.StoreysNumber.Int,
			Purpose:       d.Purpose.String,
			ConditionID:   optUint(d.ConditionID),
		}
	case entities.KindHouse:
		required("storeys_number", d.StoreysNumber.Valid)
		required("rooms", d.Rooms.Valid)
		forbidden("floor", d.Floor.Valid)
		forbidden("kitchen_area", d.KitchenArea.Valid)
		forbidden("purpose", d.Purpose.Valid)
		forbidden("cadastral_number", d.CadastralNumber.Valid)
		listing.House = &entities.HouseDetails{
			StoreysNumber: d.StoreysNumber.Int,
			Rooms:         d.Rooms.Int,
			LandArea:      optFloat(d.LandArea),
			MaterialID:    optUint(d.MaterialID),
			ConditionID:   optUint(d.ConditionID),
		}
	case entities.KindLand:
		required("purpose", d.Purpose.Valid)
		forbidden("floor", d.Floor.Valid)
		forbidden("storeys_number", d.StoreysNumber.Valid)
		forbidden("rooms", d.Rooms.Valid)
		forbidden("condition_id", d.ConditionID.Valid)
		forbidden("material_id", d.MaterialID.Valid)
		forbidden("kitchen_area", d.KitchenArea.Valid)
		forbidden("land_area", d.LandArea.Valid)
		listing.Land = &entities.LandDetails{
			Purpose:         d.Purpose.String,
			CadastralNumber: optString(d.CadastralNumber),
		}
	default:
		verr.Add("kind", "неизвестный тип объекта")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return listing, nil
}
