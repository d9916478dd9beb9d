package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"realty-system/internal/authz"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"
	"realty-system/pkg/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// In-memory реализации репозиториев. Транзакция - nil: фейки её не используют.

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func principalCtx(user *entities.User, caps ...authz.Capability) context.Context {
	perms := make(map[string]bool, len(caps))
	for _, c := range caps {
		perms[string(c)] = true
	}
	return utils.WithPrincipal(context.Background(), user, perms)
}

func realtor(id uint64, filials ...uint64) *entities.User {
	return &entities.User{ID: id, Fio: "Риэлтор", IsActive: true, FilialIDs: filials}
}

func capOf(resource authz.Resource, action authz.Action, scope authz.Scope) authz.Capability {
	return authz.MustLookup(resource, action, scope)
}

// inVisibility повторяет на Go то, что VisibilityPredicate делает в SQL.
func inVisibility(vis repositories.Visibility, o authz.Owned, deleted bool) bool {
	if deleted && !vis.IncludeDeleted {
		return false
	}
	switch vis.Scope {
	case authz.ScopeGlobal:
		return true
	case authz.ScopeFilial:
		for _, a := range vis.FilialIDs {
			for _, b := range o.OwnerFilialIDs() {
				if a == b {
					return true
				}
			}
		}
		return false
	case authz.ScopeOwn:
		return o.OwnerRealtorID() == vis.ActorID
	}
	return false
}

// --- users ---

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint64]*entities.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	out := make([]entities.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeUserRepo) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	id := uint64(len(r.users) + 1)
	cp := *user
	cp.ID = id
	r.users[id] = &cp
	return id, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) SetUserFilials(ctx context.Context, tx pgx.Tx, userID uint64, filialIDs []uint64) error {
	r.users[userID].FilialIDs = filialIDs
	return nil
}

func (r *fakeUserRepo) SetUserGroups(ctx context.Context, tx pgx.Tx, userID uint64, groupIDs []uint64) error {
	r.users[userID].GroupIDs = groupIDs
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, userID uint64) error {
	now := time.Now()
	r.users[userID].LastLogin = &now
	return nil
}

// --- history ---

type fakeHistoryRepo struct {
	mu        sync.Mutex
	snapshots []entities.HistorySnapshot
}

func (r *fakeHistoryRepo) AppendSnapshot(ctx context.Context, tx pgx.Tx, snapshot *entities.HistorySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot.ID = uint64(len(r.snapshots) + 1)
	snapshot.Version = 1
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		if r.snapshots[i].Ref == snapshot.Ref {
			prev := r.snapshots[i].ID
			snapshot.PrevID = &prev
			snapshot.Version = r.snapshots[i].Version + 1
			break
		}
	}
	r.snapshots = append(r.snapshots, *snapshot)
	return nil
}

func (r *fakeHistoryRepo) GetSnapshots(ctx context.Context, ref entities.EntityRef) ([]entities.HistorySnapshot, error) {
	var out []entities.HistorySnapshot
	for _, s := range r.snapshots {
		if s.Ref == ref {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) GetListingHistory(ctx context.Context, kind entities.ListingKind, from, to *time.Time, vis repositories.Visibility) ([]entities.HistoryEntry, error) {
	return nil, nil
}

func (r *fakeHistoryRepo) changeTypes(ref entities.EntityRef) []string {
	var out []string
	for _, s := range r.snapshots {
		if s.Ref == ref {
			out = append(out, s.ChangeType)
		}
	}
	return out
}

// --- listings ---

type fakeListingRepo struct {
	listings map[entities.ListingKind]map[uint64]*entities.Listing
	nextID   uint64
	// matchCalls - сколько раз вызывался MatchListings
	matchCalls int
}

func newFakeListingRepo(listings ...*entities.Listing) *fakeListingRepo {
	r := &fakeListingRepo{listings: map[entities.ListingKind]map[uint64]*entities.Listing{}}
	for _, l := range listings {
		r.put(l)
	}
	return r
}

func (r *fakeListingRepo) put(l *entities.Listing) {
	if r.listings[l.Kind] == nil {
		r.listings[l.Kind] = map[uint64]*entities.Listing{}
	}
	if l.ID > r.nextID {
		r.nextID = l.ID
	}
	r.listings[l.Kind][l.ID] = l
}

func (r *fakeListingRepo) sorted(kind entities.ListingKind) []*entities.Listing {
	out := make([]*entities.Listing, 0, len(r.listings[kind]))
	for _, l := range r.listings[kind] {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeListingRepo) GetListings(ctx context.Context, kind entities.ListingKind, filter types.Filter, vis repositories.Visibility) ([]entities.Listing, uint64, error) {
	out := []entities.Listing{}
	for _, l := range r.sorted(kind) {
		if inVisibility(vis, l, l.IsDeleted) {
			out = append(out, *l)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeListingRepo) FindListing(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, id uint64) (*entities.Listing, error) {
	l, ok := r.listings[kind][id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) FindListings(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, ids []uint64) ([]entities.Listing, error) {
	var out []entities.Listing
	for _, id := range ids {
		if l, ok := r.listings[kind][id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

// MatchListings не исполняет SQL-предикаты: отдаёт все живые видимые объекты.
func (r *fakeListingRepo) MatchListings(ctx context.Context, kind entities.ListingKind, criteria sq.Sqlizer, vis repositories.Visibility) ([]entities.Listing, error) {
	r.matchCalls++
	if _, _, err := criteria.ToSql(); err != nil {
		return nil, err
	}
	var out []entities.Listing
	for _, l := range r.sorted(kind) {
		if l.Status.Active() && inVisibility(vis, l, l.IsDeleted) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) CreateListing(ctx context.Context, tx pgx.Tx, listing *entities.Listing) (uint64, error) {
	r.nextID++
	cp := *listing
	cp.ID = r.nextID
	r.put(&cp)
	return cp.ID, nil
}

func (r *fakeListingRepo) UpdateListing(ctx context.Context, tx pgx.Tx, listing *entities.Listing) error {
	if _, ok := r.listings[listing.Kind][listing.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *listing
	r.put(&cp)
	return nil
}

func (r *fakeListingRepo) MarkInSelection(ctx context.Context, tx pgx.Tx, kind entities.ListingKind, ids []uint64) error {
	for _, id := range ids {
		if l, ok := r.listings[kind][id]; ok {
			l.InSelection = true
		}
	}
	return nil
}

// --- clients & selections ---

type fakeClientRepo struct {
	clients map[uint64]*entities.Client
}

func newFakeClientRepo(clients ...*entities.Client) *fakeClientRepo {
	r := &fakeClientRepo{clients: map[uint64]*entities.Client{}}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *fakeClientRepo) GetClients(ctx context.Context, filter types.Filter, vis repositories.Visibility) ([]entities.Client, uint64, error) {
	out := []entities.Client{}
	for _, c := range r.clients {
		if inVisibility(vis, c, c.IsDeleted) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeClientRepo) FindClient(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) CreateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) (uint64, error) {
	cp := *client
	cp.ID = uint64(len(r.clients) + 1)
	r.clients[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeClientRepo) UpdateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) error {
	if _, ok := r.clients[client.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

func (r *fakeClientRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status entities.ClientStatus) error {
	c, ok := r.clients[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.Status = status
	return nil
}

type fakeSelectionRepo struct {
	selections []entities.Selection
}

func (r *fakeSelectionRepo) CreateSelection(ctx context.Context, tx pgx.Tx, selection *entities.Selection) (uint64, error) {
	cp := *selection
	cp.ID = uint64(len(r.selections) + 1)
	cp.CreatedAt = time.Now()
	r.selections = append(r.selections, cp)
	return cp.ID, nil
}

func (r *fakeSelectionRepo) FindSelection(ctx context.Context, id uint64) (*entities.Selection, error) {
	for i := range r.selections {
		if r.selections[i].ID == id {
			cp := r.selections[i]
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeSelectionRepo) GetClientSelections(ctx context.Context, clientID uint64) ([]entities.Selection, error) {
	var out []entities.Selection
	for _, s := range r.selections {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- filials ---

type fakeFilialRepo struct {
	filials map[uint64]*entities.FilialAgency
	reports map[uint64]*entities.FilialReport
}

func newFakeFilialRepo() *fakeFilialRepo {
	return &fakeFilialRepo{filials: map[uint64]*entities.FilialAgency{}, reports: map[uint64]*entities.FilialReport{}}
}

func (r *fakeFilialRepo) GetFilials(ctx context.Context, filter types.Filter) ([]entities.FilialAgency, uint64, error) {
	out := []entities.FilialAgency{}
	for _, f := range r.filials {
		if !f.IsDeleted {
			out = append(out, *f)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeFilialRepo) FindFilial(ctx context.Context, tx pgx.Tx, id uint64) (*entities.FilialAgency, error) {
	f, ok := r.filials[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFilialRepo) CreateFilial(ctx context.Context, tx pgx.Tx, filial *entities.FilialAgency) (uint64, error) {
	cp := *filial
	cp.ID = uint64(len(r.filials) + 1)
	r.filials[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeFilialRepo) UpdateFilial(ctx context.Context, tx pgx.Tx, filial *entities.FilialAgency) error {
	cp := *filial
	r.filials[filial.ID] = &cp
	return nil
}

func (r *fakeFilialRepo) GetFilialReports(ctx context.Context, filialID uint64) ([]entities.FilialReport, error) {
	out := []entities.FilialReport{}
	for _, rep := range r.reports {
		if rep.FilialID == filialID && !rep.IsDeleted {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (r *fakeFilialRepo) FindFilialReport(ctx context.Context, tx pgx.Tx, id uint64) (*entities.FilialReport, error) {
	rep, ok := r.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (r *fakeFilialRepo) CreateFilialReport(ctx context.Context, tx pgx.Tx, report *entities.FilialReport) (uint64, error) {
	cp := *report
	cp.ID = uint64(len(r.reports) + 1)
	r.reports[cp.ID] = &cp
	return cp.ID, nil
}

// fakeSoftDeleteRepo знает одну связь: filial_reports.filial_id.
type fakeSoftDeleteRepo struct {
	filials  *fakeFilialRepo
	listings *fakeListingRepo
	clients  *fakeClientRepo
}

func (r *fakeSoftDeleteRepo) deletedFlag(ref entities.EntityRef) (*bool, bool) {
	switch ref.Type {
	case entities.EntityFilialAgency:
		if f, ok := r.filials.filials[ref.ID]; ok {
			return &f.IsDeleted, true
		}
	case entities.EntityFilialReport:
		if rep, ok := r.filials.reports[ref.ID]; ok {
			return &rep.IsDeleted, true
		}
	case entities.EntityClient:
		if c, ok := r.clients.clients[ref.ID]; ok {
			return &c.IsDeleted, true
		}
	default:
		for _, kind := range entities.ListingKinds {
			if kind.EntityType() != ref.Type {
				continue
			}
			if l, ok := r.listings.listings[kind][ref.ID]; ok {
				return &l.IsDeleted, true
			}
		}
	}
	return nil, false
}

func (r *fakeSoftDeleteRepo) LockLive(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) error {
	flag, ok := r.deletedFlag(ref)
	if !ok || *flag {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *fakeSoftDeleteRepo) FindLiveRelation(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) (*repositories.Relation, error) {
	if ref.Type != entities.EntityFilialAgency {
		return nil, nil
	}
	for _, rep := range r.filials.reports {
		if rep.FilialID == ref.ID && !rep.IsDeleted {
			return &repositories.Relation{Table: "filial_reports", Column: "filial_id"}, nil
		}
	}
	return nil, nil
}

func (r *fakeSoftDeleteRepo) MarkDeleted(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) error {
	flag, ok := r.deletedFlag(ref)
	if !ok {
		return apperrors.ErrNotFound
	}
	*flag = true
	return nil
}

// --- cache & permissions ---

type fakePermissionRepo struct {
	perms map[uint64][]string
	calls int
}

func (r *fakePermissionRepo) GetPermissions(ctx context.Context, search string) ([]entities.Permission, error) {
	return []entities.Permission{}, nil
}

func (r *fakePermissionRepo) GetAllUserPermissionsNames(ctx context.Context, userID uint64) ([]string, error) {
	r.calls++
	return r.perms[userID], nil
}

func (r *fakePermissionRepo) SetUserPermissions(ctx context.Context, tx pgx.Tx, userID uint64, codenames []string) error {
	r.perms[userID] = codenames
	return nil
}

func (r *fakePermissionRepo) UpsertPermission(ctx context.Context, tx pgx.Tx, codename, description string) (uint64, error) {
	return 0, nil
}
