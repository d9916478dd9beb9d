package services

import (
	"context"
	"fmt"
	"sort"

	"realty-system/internal/authz"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SelectionServiceInterface interface {
	// Match - подбор объектов по критериям в пределах видимости принципала.
	Match(ctx context.Context, kind entities.ListingKind, criteria MatchCriteria) ([]entities.Listing, error)
	// MatchClient - подбор по сохранённому профилю клиента.
	MatchClient(ctx context.Context, clientID uint64) ([]entities.Listing, error)
	// CreateSelection - акт показа: подборка, отметка объектов и переход клиента в WITH_SHOW.
	CreateSelection(ctx context.Context, clientID uint64, items []entities.SelectionItem) (*entities.Selection, error)
	ListSelections(ctx context.Context, clientID uint64) ([]entities.Selection, error)
	// FindSelection - подборка вместе с клиентом и объектами для акта показа.
	FindSelection(ctx context.Context, id uint64) (*ShowingAct, error)
}

type SelectionService struct {
	txManager     repositories.TxManagerInterface
	listingRepo   repositories.ListingRepositoryInterface
	clientRepo    repositories.ClientRepositoryInterface
	selectionRepo repositories.SelectionRepositoryInterface
	history       historyRecorder
	gate          *authz.Gatekeeper
	logger        *zap.Logger
}

func NewSelectionService(
	txManager repositories.TxManagerInterface,
	listingRepo repositories.ListingRepositoryInterface,
	clientRepo repositories.ClientRepositoryInterface,
	selectionRepo repositories.SelectionRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	logger *zap.Logger,
) SelectionServiceInterface {
	return &SelectionService{
		txManager:     txManager,
		listingRepo:   listingRepo,
		clientRepo:    clientRepo,
		selectionRepo: selectionRepo,
		history:       newHistoryRecorder(historyRepo),
		gate:          authz.NewGatekeeper(),
		logger:        logger,
	}
}

func (s *SelectionService) Match(ctx context.Context, kind entities.ListingKind, criteria MatchCriteria) ([]entities.Listing, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	return s.match(ctx, principal, kind, criteria)
}

func (s *SelectionService) match(ctx context.Context, principal authz.Context, kind entities.ListingKind, criteria MatchCriteria) ([]entities.Listing, error) {
	if err := criteria.Validate(kind); err != nil {
		return nil, err
	}
	scope := s.gate.Scope(principal, authz.ListingResource(kind), authz.ActionView)
	if scope == authz.ScopeDenied {
		return []entities.Listing{}, nil
	}

	candidates, err := s.listingRepo.MatchListings(ctx, kind, criteria.Predicates(), visibilityFor(principal, scope))
	if err != nil {
		s.logger.Error("Match: ошибка подбора", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}

	out := make([]entities.Listing, 0, len(candidates))
	for i := range candidates {
		if criteria.Accepts(&candidates[i]) {
			out = append(out, candidates[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *SelectionService) loadClient(ctx context.Context, tx pgx.Tx, principal authz.Context, clientID uint64, resource authz.Resource, action authz.Action) (*entities.Client, error) {
	client, err := s.clientRepo.FindClient(ctx, tx, clientID)
	if err != nil {
		return nil, err
	}
	if client.IsDeleted {
		return nil, apperrors.ErrNotFound
	}
	if err := s.gate.Require(principal, resource, action, client); err != nil {
		s.logger.Warn("доступ к клиенту запрещён", zap.Uint64("clientID", clientID), zap.Uint64("actor", principal.Actor.ID),
			zap.String("resource", string(resource)), zap.String("action", string(action)))
		return nil, err
	}
	return client, nil
}

func (s *SelectionService) MatchClient(ctx context.Context, clientID uint64) ([]entities.Listing, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, nil, principal, clientID, authz.ResourceClient, authz.ActionView)
	if err != nil {
		return nil, err
	}
	if client.Search.ObjectKind == "" {
		return nil, apperrors.NewValidationError("object_kind", "у клиента не задан тип объекта")
	}
	return s.match(ctx, principal, client.Search.ObjectKind, CriteriaFromProfile(client.Search))
}

// groupItems убирает дубликаты и группирует объекты по типу.
func groupItems(items []entities.SelectionItem) ([]entities.SelectionItem, map[entities.ListingKind][]uint64) {
	seen := make(map[entities.SelectionItem]struct{}, len(items))
	unique := make([]entities.SelectionItem, 0, len(items))
	byKind := make(map[entities.ListingKind][]uint64)
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		unique = append(unique, item)
		byKind[item.Kind] = append(byKind[item.Kind], item.ListingID)
	}
	return unique, byKind
}

func (s *SelectionService) CreateSelection(ctx context.Context, clientID uint64, items []entities.SelectionItem) (*entities.Selection, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("items", "подборка не может быть пустой")
	}
	unique, byKind := groupItems(items)
	actor := actorIDPtr(principal)

	var created *entities.Selection
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		client, err := s.loadClient(ctx, tx, principal, clientID, authz.ResourceSelection, authz.ActionAdd)
		if err != nil {
			return err
		}

		// Объекты должны быть живыми и видимыми принципалу
		var toMark []*entities.Listing
		for _, kind := range entities.ListingKinds {
			ids := byKind[kind]
			if len(ids) == 0 {
				continue
			}
			listings, err := s.listingRepo.FindListings(ctx, tx, kind, ids)
			if err != nil {
				return err
			}
			found := make(map[uint64]*entities.Listing, len(listings))
			for i := range listings {
				found[listings[i].ID] = &listings[i]
			}
			for _, id := range ids {
				l, ok := found[id]
				if !ok || l.IsDeleted || !authz.CanActOn(principal, authz.ListingResource(kind), authz.ActionView, l) {
					return apperrors.NewValidationError("items", fmt.Sprintf("объект %s #%d недоступен", kind, id))
				}
				if !l.InSelection {
					toMark = append(toMark, l)
				}
			}
			if err := s.listingRepo.MarkInSelection(ctx, tx, kind, ids); err != nil {
				return err
			}
		}

		selection := &entities.Selection{ClientID: client.ID, UserID: principal.Actor.ID, Items: unique}
		id, err := s.selectionRepo.CreateSelection(ctx, tx, selection)
		if err != nil {
			return err
		}
		selection.ID = id
		selection.UserFio = principal.Actor.Fio
		created = selection

		for _, l := range toMark {
			l.InSelection = true
			if err := s.history.Record(ctx, tx, l, entities.ChangeUpdated, actor); err != nil {
				return err
			}
		}

		// Первый показ переводит клиента в WITH_SHOW
		if client.Status == entities.ClientInSearch {
			if err := s.clientRepo.UpdateStatus(ctx, tx, client.ID, entities.ClientWithShow); err != nil {
				return err
			}
			client.Status = entities.ClientWithShow
			if err := s.history.Record(ctx, tx, client, entities.ChangeUpdated, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("CreateSelection: ошибка создания подборки", zap.Uint64("clientID", clientID), zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("Подборка создана", zap.Uint64("selectionID", created.ID), zap.Uint64("clientID", clientID), zap.Int("items", len(unique)))
	return created, nil
}

func (s *SelectionService) ListSelections(ctx context.Context, clientID uint64) ([]entities.Selection, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadClient(ctx, nil, principal, clientID, authz.ResourceSelection, authz.ActionView); err != nil {
		return nil, err
	}
	return s.selectionRepo.GetClientSelections(ctx, clientID)
}

func (s *SelectionService) FindSelection(ctx context.Context, id uint64) (*ShowingAct, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	selection, err := s.selectionRepo.FindSelection(ctx, id)
	if err != nil {
		return nil, err
	}
	if selection.IsDeleted {
		return nil, apperrors.ErrNotFound
	}
	client, err := s.loadClient(ctx, nil, principal, selection.ClientID, authz.ResourceSelection, authz.ActionView)
	if err != nil {
		return nil, err
	}

	_, byKind := groupItems(selection.Items)
	act := &ShowingAct{Selection: *selection, Client: *client}
	for _, kind := range entities.ListingKinds {
		if len(byKind[kind]) == 0 {
			continue
		}
		listings, err := s.listingRepo.FindListings(ctx, nil, kind, byKind[kind])
		if err != nil {
			return nil, err
		}
		act.Listings = append(act.Listings, listings...)
	}
	return act, nil
}
