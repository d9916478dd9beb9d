package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realty-system/internal/authz"
	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
)

func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func TestPredicates_PriceAndNotFirstFloor(t *testing.T) {
	c := MatchCriteria{PriceFrom: int64Ptr(1000), PriceTo: int64Ptr(5000), NotFirstFloor: true}

	sql, args, err := c.Predicates().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(o.floor <> ? AND o.price >= ? AND o.price <= ?)", sql)
	assert.Equal(t, []interface{}{1, int64(1000), int64(5000)}, args)
}

func TestPredicates_KeywordEscaped(t *testing.T) {
	c := MatchCriteria{Keyword: "50%_off", LocalityIDs: []uint64{3, 4}}

	sql, args, err := c.Predicates().ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "o.locality_id IN (?,?)")
	assert.Contains(t, sql, "loc.name ILIKE ?")
	assert.Contains(t, sql, "o.comment ILIKE ?")
	assert.Contains(t, args, `%50\%\_off%`)
}

func TestPredicates_EmptyCriteria(t *testing.T) {
	sql, args, err := MatchCriteria{}.Predicates().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(1=1)", sql)
	assert.Empty(t, args)
}

func TestCriteriaValidate(t *testing.T) {
	var verr *apperrors.ValidationError

	err := MatchCriteria{FloorFrom: intPtr(2)}.Validate(entities.KindLand)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "floor")

	err = MatchCriteria{Rooms: intPtr(2)}.Validate(entities.KindCommerce)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rooms")

	err = MatchCriteria{PriceFrom: int64Ptr(10), PriceTo: int64Ptr(5)}.Validate(entities.KindApartment)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "price_from")

	assert.NoError(t, MatchCriteria{FloorFrom: intPtr(2), Rooms: intPtr(3)}.Validate(entities.KindApartment))
}

func newSelectionFixture(listings *fakeListingRepo, clients *fakeClientRepo) (SelectionServiceInterface, *fakeSelectionRepo, *fakeHistoryRepo) {
	selections := &fakeSelectionRepo{}
	hist := &fakeHistoryRepo{}
	return NewSelectionService(fakeTx{}, listings, clients, selections, hist, zap.NewNop()), selections, hist
}

func TestMatch_NotLastFloorExcluded(t *testing.T) {
	listings := newFakeListingRepo(
		flat(1, 10, nil, 5, 5, 100), // последний
		flat(2, 10, nil, 4, 5, 100),
		flat(3, 10, nil, 1, 1, 100), // одноэтажный: он же последний
	)
	svc, _, _ := newSelectionFixture(listings, newFakeClientRepo())
	ctx := principalCtx(realtor(10), capOf(authz.ResourceApartment, authz.ActionView, authz.ScopeGlobal))

	got, err := svc.Match(ctx, entities.KindApartment, MatchCriteria{NotLastFloor: true})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(got))

	got, err = svc.Match(ctx, entities.KindApartment, MatchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids(got))
}

func TestMatch_Idempotent(t *testing.T) {
	sold := flat(4, 10, nil, 2, 5, 100)
	sold.Status = entities.StatusSold
	listings := newFakeListingRepo(flat(1, 10, nil, 2, 5, 100), flat(2, 11, nil, 2, 5, 100), sold)
	svc, _, _ := newSelectionFixture(listings, newFakeClientRepo())
	ctx := principalCtx(realtor(10), capOf(authz.ResourceApartment, authz.ActionView, authz.ScopeOwn))

	criteria := MatchCriteria{PriceTo: int64Ptr(1000)}
	first, err := svc.Match(ctx, entities.KindApartment, criteria)
	require.NoError(t, err)
	second, err := svc.Match(ctx, entities.KindApartment, criteria)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []uint64{1}, ids(first))
	assert.Equal(t, 2, listings.matchCalls)
}

func TestMatch_DeniedIsEmpty(t *testing.T) {
	listings := newFakeListingRepo(flat(1, 10, nil, 2, 5, 100))
	svc, _, _ := newSelectionFixture(listings, newFakeClientRepo())

	got, err := svc.Match(principalCtx(realtor(10)), entities.KindApartment, MatchCriteria{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, listings.matchCalls)
}

func TestCreateSelection_MarksListingsAndMovesClient(t *testing.T) {
	listings := newFakeListingRepo(flat(1, 10, nil, 2, 5, 100), flat(2, 10, nil, 3, 5, 200))
	client := &entities.Client{ID: 7, Fio: "Иванов", Status: entities.ClientInSearch, RealtorID: 10}
	clients := newFakeClientRepo(client)
	svc, selections, hist := newSelectionFixture(listings, clients)
	me := realtor(10)
	me.Fio = "Петрова"
	ctx := principalCtx(me,
		capOf(authz.ResourceSelection, authz.ActionAdd, authz.ScopeOwn),
		capOf(authz.ResourceSelection, authz.ActionView, authz.ScopeOwn),
		capOf(authz.ResourceApartment, authz.ActionView, authz.ScopeOwn),
	)

	items := []entities.SelectionItem{
		{Kind: entities.KindApartment, ListingID: 1},
		{Kind: entities.KindApartment, ListingID: 2},
		{Kind: entities.KindApartment, ListingID: 1},
	}
	sel, err := svc.CreateSelection(ctx, 7, items)
	require.NoError(t, err)
	assert.Len(t, sel.Items, 2, "дубликаты убраны")
	assert.Len(t, selections.selections, 1)

	assert.True(t, listings.listings[entities.KindApartment][1].InSelection)
	assert.True(t, listings.listings[entities.KindApartment][2].InSelection)
	assert.Equal(t, entities.ClientWithShow, clients.clients[7].Status)
	assert.Equal(t, []string{"~"}, hist.changeTypes(client.HistoryRef()))

	act, err := svc.FindSelection(ctx, sel.ID)
	require.NoError(t, err)
	assert.Equal(t, "Иванов", act.Client.Fio)
	assert.Equal(t, []uint64{1, 2}, ids(act.Listings))

	// Второй показ: статус клиента уже не IN_SEARCH
	_, err = svc.CreateSelection(ctx, 7, items[:1])
	require.NoError(t, err)
	assert.Equal(t, []string{"~"}, hist.changeTypes(client.HistoryRef()))
}

func TestCreateSelection_InvisibleListing(t *testing.T) {
	listings := newFakeListingRepo(flat(1, 11, nil, 2, 5, 100))
	clients := newFakeClientRepo(&entities.Client{ID: 7, Status: entities.ClientInSearch, RealtorID: 10})
	svc, selections, _ := newSelectionFixture(listings, clients)
	ctx := principalCtx(realtor(10),
		capOf(authz.ResourceSelection, authz.ActionAdd, authz.ScopeOwn),
		capOf(authz.ResourceApartment, authz.ActionView, authz.ScopeOwn),
	)

	_, err := svc.CreateSelection(ctx, 7, []entities.SelectionItem{{Kind: entities.KindApartment, ListingID: 1}})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")
	assert.Empty(t, selections.selections)
}

func TestBuildActDocument(t *testing.T) {
	act := &ShowingAct{
		Selection: entities.Selection{ID: 3, UserFio: "Петрова"},
		Client:    entities.Client{Fio: "Иванов", PhoneNumber: "+992900000000"},
		Listings:  []entities.Listing{*flat(1, 10, nil, 3, 9, 150000)},
	}
	act.Listings[0].LocalityName = "Душанбе"

	doc := BuildActDocument(act)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "1", doc.Rows[0][0])
	assert.Contains(t, doc.Rows[0][1], "Квартира, Душанбе")
	assert.Contains(t, doc.Rows[0][1], "эт. 3/9")
	assert.Equal(t, "150000", doc.Rows[0][2])
	assert.Contains(t, doc.Header[0], "Иванов")
	assert.Len(t, doc.Widths, len(doc.Columns))
}
