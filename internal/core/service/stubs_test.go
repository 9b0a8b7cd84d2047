package service

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
	"github.com/salesdesk/backoffice/internal/core/query"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) sorted() []*domain.User {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubUserRepo) List(_ context.Context, page query.Page) ([]*domain.User, int64, error) {
	all := r.sorted()
	return paginate(all, page), int64(len(all)), nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]*domain.User, error) {
	return r.sorted(), nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.sorted() {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type stubClientRepo struct {
	clients   map[int64]*domain.Client
	contracts *stubContractRepo
	users     *stubUserRepo
	nextID    int64
	updateErr error
}

func newStubClientRepo(users *stubUserRepo, contracts *stubContractRepo) *stubClientRepo {
	r := &stubClientRepo{clients: make(map[int64]*domain.Client), users: users, contracts: contracts}
	contracts.clients = r
	return r
}

func cloneClient(c *domain.Client) *domain.Client {
	clone := *c
	clone.Contracts = nil
	return &clone
}

func (r *stubClientRepo) Create(_ context.Context, c *domain.Client) error {
	r.nextID++
	c.ID = r.nextID
	r.clients[c.ID] = cloneClient(c)
	return nil
}

func (r *stubClientRepo) project(c *domain.Client) *domain.Client {
	out := cloneClient(c)
	if u, ok := r.users.users[c.OwnerID]; ok {
		out.OwnerEmail = u.Email
	}
	return out
}

func (r *stubClientRepo) FindByID(_ context.Context, id int64) (*domain.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	out := r.project(c)
	for _, k := range r.contracts.sorted() {
		if k.ClientID == id {
			out.Contracts = append(out.Contracts, *k)
		}
	}
	return out, nil
}

func (r *stubClientRepo) matching(f query.ClientFilter) []*domain.Client {
	var out []*domain.Client
	for _, c := range r.clients {
		if f.Matches(c) {
			out = append(out, r.project(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *stubClientRepo) List(_ context.Context, f query.ClientFilter, page query.Page) ([]*domain.Client, error) {
	return paginate(r.matching(f), page), nil
}

func (r *stubClientRepo) Count(_ context.Context, f query.ClientFilter) (int64, error) {
	return int64(len(r.matching(f))), nil
}

func (r *stubClientRepo) Update(_ context.Context, c *domain.Client) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.clients[c.ID]; !ok {
		return domain.ErrClientNotFound
	}
	r.clients[c.ID] = cloneClient(c)
	return nil
}

func (r *stubClientRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *stubClientRepo) CountCreatedByOwner(_ context.Context, from, to time.Time) (map[int64]int64, error) {
	out := make(map[int64]int64)
	for _, c := range r.clients {
		if !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			out[c.OwnerID]++
		}
	}
	return out, nil
}

type stubContractRepo struct {
	contracts map[int64]*domain.Contract
	clients   *stubClientRepo
	nextID    int64
}

func newStubContractRepo() *stubContractRepo {
	return &stubContractRepo{contracts: make(map[int64]*domain.Contract)}
}

func (r *stubContractRepo) sorted() []*domain.Contract {
	out := make([]*domain.Contract, 0, len(r.contracts))
	for _, k := range r.contracts {
		clone := *k
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *stubContractRepo) withClient(k *domain.Contract) *domain.Contract {
	if c, ok := r.clients.clients[k.ClientID]; ok {
		k.Client = &domain.ClientRef{ID: c.ID, Name: c.Name, TaxID: c.TaxID, OwnerID: c.OwnerID}
	}
	return k
}

func (r *stubContractRepo) Create(_ context.Context, k *domain.Contract) error {
	r.nextID++
	k.ID = r.nextID
	clone := *k
	r.contracts[k.ID] = &clone
	return nil
}

func (r *stubContractRepo) FindByID(_ context.Context, id int64) (*domain.Contract, error) {
	k, ok := r.contracts[id]
	if !ok {
		return nil, domain.ErrContractNotFound
	}
	clone := *k
	return r.withClient(&clone), nil
}

func (r *stubContractRepo) List(_ context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	var out []*domain.Contract
	for _, k := range r.sorted() {
		r.withClient(k)
		if f.ClientID != 0 && k.ClientID != f.ClientID {
			continue
		}
		if f.OwnerID != 0 && (k.Client == nil || k.Client.OwnerID != f.OwnerID) {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

func (r *stubContractRepo) Update(_ context.Context, k *domain.Contract) error {
	if _, ok := r.contracts[k.ID]; !ok {
		return domain.ErrContractNotFound
	}
	clone := *k
	r.contracts[k.ID] = &clone
	return nil
}

func (r *stubContractRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.contracts[id]; !ok {
		return domain.ErrContractNotFound
	}
	delete(r.contracts, id)
	return nil
}

func (r *stubContractRepo) DeleteByClient(_ context.Context, clientID int64) error {
	for id, k := range r.contracts {
		if k.ClientID == clientID {
			delete(r.contracts, id)
		}
	}
	return nil
}

type stubHistoryRepo struct {
	entries []*domain.HistoryEntry
}

func (r *stubHistoryRepo) InsertMany(_ context.Context, entries []*domain.HistoryEntry) error {
	for _, e := range entries {
		e.ID = int64(len(r.entries) + 1)
		clone := *e
		r.entries = append(r.entries, &clone)
	}
	return nil
}

func (r *stubHistoryRepo) List(_ context.Context, f ports.HistoryFilter) ([]*domain.HistoryEntry, error) {
	var out []*domain.HistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if f.ClientID != 0 && r.entries[i].ClientID != f.ClientID {
			continue
		}
		clone := *r.entries[i]
		out = append(out, &clone)
	}
	return out, nil
}

// stubTx runs fn directly and counts calls. It does not roll back.
type stubTx struct {
	transactions int
	snapshots    int
}

func (t *stubTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.transactions++
	return fn(ctx)
}

func (t *stubTx) WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	t.snapshots++
	return fn(ctx)
}

type stubWriter struct {
	written []*domain.Client
}

func (w *stubWriter) WriteClients(out io.Writer, clients []*domain.Client) error {
	w.written = clients
	_, err := io.WriteString(out, "xlsx")
	return err
}

func paginate[T any](items []T, page query.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type fixture struct {
	users     *stubUserRepo
	clients   *stubClientRepo
	contracts *stubContractRepo
	history   *stubHistoryRepo
	tx        *stubTx
	store     ports.Store

	admin  domain.Identity
	seller domain.Identity
	other  domain.Identity
}

func newFixture() *fixture {
	users := newStubUserRepo()
	contracts := newStubContractRepo()
	clients := newStubClientRepo(users, contracts)
	history := &stubHistoryRepo{}
	tx := &stubTx{}

	f := &fixture{
		users:     users,
		clients:   clients,
		contracts: contracts,
		history:   history,
		tx:        tx,
		store: ports.Store{
			Users:     users,
			Clients:   clients,
			Contracts: contracts,
			History:   history,
			Tx:        tx,
		},
	}
	f.admin = f.addUser("admin@example.com", domain.RoleAdmin)
	f.seller = f.addUser("seller@example.com", domain.RoleSalesperson)
	f.other = f.addUser("other@example.com", domain.RoleSalesperson)
	return f
}

func (f *fixture) addUser(email string, role domain.Role) domain.Identity {
	u := &domain.User{Email: email, PasswordHash: "x", Role: role}
	_ = f.users.Create(context.Background(), u)
	return u.Identity()
}

func (f *fixture) addClient(owner domain.Identity, createdAt time.Time) *domain.Client {
	phone := "+55 11 90000-0000"
	c := &domain.Client{
		TaxID:          "123.456.789-00",
		Name:           "Maria Souza",
		BirthDate:      mustDate("1990-05-20"),
		AvailableValue: mustDecimal("1500.00"),
		Status:         "Aprovado",
		Phone:          &phone,
		Bank:           "Banco do Brasil",
		OwnerID:        owner.ID,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	_ = f.clients.Create(context.Background(), c)
	return c
}
