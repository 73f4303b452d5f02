package mocks

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

// MockEntryRepository is an in-memory EntryRepository. Resolve is a
// conditional update guarded by a mutex, like the SQL version.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry
	actors  map[string]*domain.Actor

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Entry, error)
	ListFunc               func(ctx context.Context, scope domain.EntryScope) ([]*domain.Entry, error)
	ReplaceAdjustmentsFunc func(ctx context.Context, tx usecase.Transaction, entryID string, lines []domain.Adjustment) error
	ResolveFunc            func(ctx context.Context, tx usecase.Transaction, r domain.Resolution) (string, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.Entry),
		actors:  make(map[string]*domain.Actor),
	}
}

// AddActor makes actor available for owner and approver projections.
func (m *MockEntryRepository) AddActor(actor *domain.Actor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[actor.ID] = actor
}

// Put stores entry as is, bypassing any use case.
func (m *MockEntryRepository) Put(entry *domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = cloneEntry(entry)
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.Put(entry)
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return m.project(e), nil
}

func (m *MockEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	return m.GetByID(ctx, id)
}

func (m *MockEntryRepository) List(ctx context.Context, scope domain.EntryScope) ([]*domain.Entry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, scope)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, e := range m.entries {
		if scope.Permits(e) {
			out = append(out, m.project(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockEntryRepository) UpdateFigures(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entry.ID]
	if !ok {
		return domain.ErrEntryNotFound
	}
	e.PanelDeposit = entry.PanelDeposit
	e.PanelWithdrawal = entry.PanelWithdrawal
	e.Carryover = entry.Carryover
	e.CommissionRate = entry.CommissionRate
	return nil
}

func (m *MockEntryRepository) ReplaceAdjustments(ctx context.Context, tx usecase.Transaction, entryID string, lines []domain.Adjustment) error {
	if m.ReplaceAdjustmentsFunc != nil {
		return m.ReplaceAdjustmentsFunc(ctx, tx, entryID, lines)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return domain.ErrEntryNotFound
	}
	e.SetAdjustments(slices.Clone(lines))
	return nil
}

func (m *MockEntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MockEntryRepository) Resolve(ctx context.Context, tx usecase.Transaction, r domain.Resolution) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, tx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[r.EntryID]
	if !ok {
		return "", domain.ErrEntryNotFound
	}
	if e.Status != domain.StatusPending {
		return "", domain.ErrEntryAlreadyHandled
	}
	approver := r.ApproverID
	approvedAt := r.ApprovedAt
	e.Status = r.Status
	e.ApprovedByID = &approver
	e.ApprovedAt = &approvedAt
	return e.OwnerID, nil
}

// project returns a copy of e with owner and approver refs filled in.
// Callers hold m.mu.
func (m *MockEntryRepository) project(e *domain.Entry) *domain.Entry {
	out := cloneEntry(e)
	if owner, ok := m.actors[e.OwnerID]; ok {
		out.Owner = actorRef(owner)
	} else {
		out.Owner = domain.ActorRef{ID: e.OwnerID}
	}
	if e.ApprovedByID != nil {
		ref := domain.ActorRef{ID: *e.ApprovedByID}
		if approver, ok := m.actors[*e.ApprovedByID]; ok {
			ref = actorRef(approver)
		}
		out.ApprovedBy = &ref
	}
	return out
}

func actorRef(a *domain.Actor) domain.ActorRef {
	ref := domain.ActorRef{ID: a.ID, Username: a.Username, FirstName: a.FirstName, LastName: a.LastName}
	if a.Group != nil {
		ref.GroupName = a.Group.Name
	}
	return ref
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	out := *e
	out.ManualDeposits = slices.Clone(e.ManualDeposits)
	out.ManualWithdrawals = slices.Clone(e.ManualWithdrawals)
	if e.ApprovedByID != nil {
		v := *e.ApprovedByID
		out.ApprovedByID = &v
	}
	if e.ApprovedAt != nil {
		v := *e.ApprovedAt
		out.ApprovedAt = &v
	}
	return &out
}

// MockNotificationRepository is an in-memory NotificationRepository.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications []*domain.Notification

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, n *domain.Notification) error
	CountUnreadFunc func(ctx context.Context, recipientID string) (int, error)
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, tx usecase.Transaction, n *domain.Notification) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

// All returns every stored notification in insertion order.
func (m *MockNotificationRepository) All() []domain.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		out = append(out, *n)
	}
	return out
}

func (m *MockNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Notification
	for i := len(m.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := m.notifications[i]; n.RecipientID == recipientID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	if m.CountUnreadFunc != nil {
		return m.CountUnreadFunc(ctx, recipientID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.Read && slices.Contains(ids, n.ID) {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

// MockActorRepository is an in-memory ActorRepository.
type MockActorRepository struct {
	mu     sync.RWMutex
	actors map[string]*domain.Actor
	groups map[string]*domain.Group

	CreateFunc func(ctx context.Context, tx usecase.Transaction, actor *domain.Actor) error
}

func NewMockActorRepository() *MockActorRepository {
	return &MockActorRepository{
		actors: make(map[string]*domain.Actor),
		groups: make(map[string]*domain.Group),
	}
}

func (m *MockActorRepository) Create(ctx context.Context, tx usecase.Transaction, actor *domain.Actor) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, actor)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actors {
		if a.Username == actor.Username {
			return domain.ErrDuplicateUsername
		}
	}
	cp := *actor
	m.actors[actor.ID] = &cp
	return nil
}

func (m *MockActorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.actors[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrActorNotFound
}

func (m *MockActorRepository) GetByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.actors {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrActorNotFound
}

func (m *MockActorRepository) EnsureGroup(ctx context.Context, tx usecase.Transaction, name string) (*domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[name]; ok {
		return g, nil
	}
	g := &domain.Group{ID: "group-" + strconv.Itoa(len(m.groups)+1), Name: name}
	m.groups[name] = g
	return g, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu        sync.Mutex
	begun     int
	committed int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	m.begun++
	m.mu.Unlock()
	return &MockTransaction{CommitFunc: func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.committed++
		return nil
	}}, nil
}

// Counts returns how many transactions were begun and committed.
func (m *MockTransactionManager) Counts() (begun, committed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begun, m.committed
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockCache is an in-memory Cache that ignores TTLs.
type MockCache struct {
	mu       sync.RWMutex
	data     map[string][]byte
	versions map[string]int64

	GetFunc func(ctx context.Context, key string) ([]byte, error)
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte), versions: make(map[string]int64)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, usecase.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.versions[key]++
	return nil
}

func (m *MockCache) Version(ctx context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[key], nil
}

func (m *MockCache) SetIfVersion(ctx context.Context, key string, value []byte, version int64, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[key] != version {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
