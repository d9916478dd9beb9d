package services

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"
)

func newClientFixture(users *fakeUserRepo, clients ...*entities.Client) (ClientServiceInterface, *fakeClientRepo, *fakeHistoryRepo) {
	repo := newFakeClientRepo(clients...)
	hist := &fakeHistoryRepo{}
	sd := &fakeSoftDeleteRepo{filials: newFakeFilialRepo(), listings: newFakeListingRepo(), clients: repo}
	softDelete := NewSoftDeleteService(fakeTx{}, sd, hist, NewSnapshotLoaders(sd.listings, repo, sd.filials, nil, nil), zap.NewNop())
	svc := NewClientService(fakeTx{}, repo, users, hist, softDelete, NewHistoryService(hist, zap.NewNop()), zap.NewNop())
	return svc, repo, hist
}

func clientCaps(scope authz.Scope) []authz.Capability {
	return []authz.Capability{
		capOf(authz.ResourceClient, authz.ActionView, scope),
		capOf(authz.ResourceClient, authz.ActionAdd, scope),
		capOf(authz.ResourceClient, authz.ActionChange, scope),
		capOf(authz.ResourceClient, authz.ActionViewHistory, scope),
	}
}

func TestClientStatusTransitions(t *testing.T) {
	svc, repo, hist := newClientFixture(newFakeUserRepo(),
		&entities.Client{ID: 1, Fio: "Иванов", Status: entities.ClientInSearch, RealtorID: 10})
	ctx := principalCtx(realtor(10), clientCaps(authz.ScopeOwn)...)

	_, err := svc.ChangeStatus(ctx, 1, entities.ClientDecided)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")

	for _, next := range []entities.ClientStatus{entities.ClientWithShow, entities.ClientDeferred, entities.ClientInSearch} {
		c, err := svc.ChangeStatus(ctx, 1, next)
		require.NoError(t, err)
		assert.Equal(t, next, c.Status)
	}
	assert.Equal(t, entities.ClientInSearch, repo.clients[1].Status)
	assert.Equal(t, []string{"~", "~", "~"}, hist.changeTypes(repo.clients[1].HistoryRef()))

	changes, err := svc.ClientHistory(ctx, 1, NewestFirst)
	require.NoError(t, err)
	require.Len(t, changes, 2, "первый снимок - база для сравнения")
	assert.Equal(t, "IN_SEARCH", *changes[0].NewValue)
}

func TestGetClients_FilialScope(t *testing.T) {
	svc, _, _ := newClientFixture(newFakeUserRepo(),
		&entities.Client{ID: 1, RealtorID: 10, RealtorFilialIDs: []uint64{1}},
		&entities.Client{ID: 2, RealtorID: 11, RealtorFilialIDs: []uint64{1, 2}},
		&entities.Client{ID: 3, RealtorID: 12, RealtorFilialIDs: []uint64{3}},
	)
	ctx := principalCtx(realtor(10, 1), clientCaps(authz.ScopeFilial)...)

	got, total, err := svc.GetClients(ctx, types.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(2), got[1].ID)
}

func TestCreateClient_ProfileValidatedAgainstKind(t *testing.T) {
	svc, _, _ := newClientFixture(newFakeUserRepo(realtor(10)))
	ctx := principalCtx(realtor(10), clientCaps(authz.ScopeOwn)...)

	_, err := svc.CreateClient(ctx, dto.ClientDTO{
		Fio: "Сидоров", PhoneNumber: "+992900000001", ObjectKind: "land",
		Search: dto.MatchCriteriaDTO{Rooms: null.IntFrom(3)},
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rooms")

	c, err := svc.CreateClient(ctx, dto.ClientDTO{
		Fio: " Сидоров ", PhoneNumber: "+992900000001", ObjectKind: "apartment",
		Search: dto.MatchCriteriaDTO{Rooms: null.IntFrom(3), NotLastFloor: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Сидоров", c.Fio)
	assert.Equal(t, entities.ClientInSearch, c.Status)
	assert.EqualValues(t, 10, c.RealtorID)
	assert.Equal(t, 3, *c.Search.Rooms)
}

func TestDeleteClient_ThenNotFound(t *testing.T) {
	svc, _, hist := newClientFixture(newFakeUserRepo(), &entities.Client{ID: 1, RealtorID: 10, Status: entities.ClientInSearch})
	ctx := principalCtx(realtor(10), clientCaps(authz.ScopeOwn)...)

	require.NoError(t, svc.DeleteClient(ctx, 1))
	_, err := svc.FindClient(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteClient(ctx, 1), apperrors.ErrNotFound)
	assert.Equal(t, []string{"-"}, hist.changeTypes(entities.EntityRef{Type: entities.EntityClient, ID: 1}))
}
