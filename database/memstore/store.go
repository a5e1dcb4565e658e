package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// Store is an in-process implementation of every store interface, used by
// service and handler tests.
// WithinTx snapshots all state and restores it when fn fails.
type Store struct {
	txMu sync.Mutex // serializes WithinTx calls
	mu   sync.Mutex

	users        map[uint]*model.User
	courses      map[uint]*model.Course
	plans        map[uint]*model.SubscriptionPlan
	transactions map[uint]*model.Transaction
	links        map[uint]map[uint]struct{}
	nextTxnID    uint
	external     map[uint]int64 // version bumps by simulated concurrent writers in the current tx

	progress       map[userCourse]*model.UserProgress
	saved          map[userCourse]time.Time
	nextProgressID uint

	resetTokens map[uint]*model.PasswordResetToken
	audits      []model.AdminAuditLog
	jobLogs     []model.CronJobLog
	nextIDs     map[string]uint

	// VersionConflicts makes the next N BumpUserVersion calls fail with database.ErrVersionConflict
	VersionConflicts int
	// BumpCalls counts BumpUserVersion invocations
	BumpCalls int
}

// New returns an empty store
func New() *Store {
	return &Store{
		users:        make(map[uint]*model.User),
		courses:      make(map[uint]*model.Course),
		plans:        make(map[uint]*model.SubscriptionPlan),
		transactions: make(map[uint]*model.Transaction),
		links:        make(map[uint]map[uint]struct{}),
		progress:     make(map[userCourse]*model.UserProgress),
		saved:        make(map[userCourse]time.Time),
		resetTokens:  make(map[uint]*model.PasswordResetToken),
		nextIDs:      make(map[string]uint),
	}
}

// PutUser inserts or replaces a user
func (m *Store) PutUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = cloneUser(&u)
}

// PutCourse inserts or replaces a course
func (m *Store) PutCourse(c model.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = &c
}

// PutPlan inserts or replaces a subscription plan
func (m *Store) PutPlan(p model.SubscriptionPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = &p
}

// User returns a copy of the stored user
func (m *Store) User(id uint) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

// Transactions returns copies of all stored transactions ordered by id
func (m *Store) Transactions() []model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		out = append(out, *cloneTxn(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LinkedTransactions returns the transaction ids linked to a user
func (m *Store) LinkedTransactions(userID uint) []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint
	for id := range m.links[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Store) WithinTx(ctx context.Context, fn func(store database.PaymentStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.snapshot()
	m.external = make(map[uint]int64)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Store) FindUser(ctx context.Context, userID uint) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Store) FindCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Store) FindSubscriptionPlan(ctx context.Context, planID uint) (*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Store) FindTransactionByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.PaymentID == paymentID {
			return cloneTxn(t), nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *Store) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.PaymentID == txn.PaymentID {
			return database.ErrDuplicatePayment
		}
	}
	m.nextTxnID++
	txn.ID = m.nextTxnID
	now := time.Now()
	txn.CreatedAt, txn.UpdatedAt = now, now
	m.transactions[txn.ID] = cloneTxn(txn)
	return nil
}

func (m *Store) SaveRefundState(ctx context.Context, txn *model.Transaction, from string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[txn.ID]
	if !ok {
		return database.ErrNotFound
	}
	if t.RefundState() != from {
		return database.ErrRefundStateConflict
	}
	t.Status = txn.Status
	t.RefundStatus = copyString(txn.RefundStatus)
	t.RefundID = txn.RefundID
	t.RefundedAt = txn.RefundedAt
	t.UpdatedAt = time.Now()
	return nil
}

func (m *Store) SetReceiptURL(ctx context.Context, transactionID uint, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[transactionID]
	if !ok {
		return database.ErrNotFound
	}
	t.ReceiptURL = url
	return nil
}

func (m *Store) ListUserTransactions(ctx context.Context, userID uint, page, limit int) ([]model.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			all = append(all, *cloneTxn(t))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (m *Store) ListTransactions(ctx context.Context, filter database.TransactionFilter, page, limit int) ([]model.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Transaction
	for _, t := range m.transactions {
		if filter.Status != "" && t.Status != filter.Status ||
			filter.PurchaseType != "" && t.PurchaseType != filter.PurchaseType ||
			filter.UserID != 0 && t.UserID != filter.UserID ||
			filter.RefundStatus != "" && t.RefundState() != filter.RefundStatus {
			continue
		}
		all = append(all, *cloneTxn(t))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (m *Store) ListPendingRefunds(ctx context.Context, limit int) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Transaction
	for _, t := range m.transactions {
		if t.RefundState() == model.RefundStatusProcessed && t.RefundID != "" {
			out = append(out, *cloneTxn(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) BumpUserVersion(ctx context.Context, userID uint, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BumpCalls++
	u, ok := m.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	if m.VersionConflicts > 0 {
		m.VersionConflicts--
		// simulate a concurrent writer
		u.Version++
		if m.external != nil {
			m.external[userID]++
		}
		return database.ErrVersionConflict
	}
	if u.Version != expected {
		return database.ErrVersionConflict
	}
	u.Version++
	return nil
}

func (m *Store) AddPurchasedCourse(ctx context.Context, userID uint, pc model.PurchasedCourse) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, database.ErrNotFound
	}
	if u.HasCourse(pc.CourseID) {
		return false, nil
	}
	pc.UserID = userID
	u.PurchasedCourses = append(u.PurchasedCourses, pc)
	return true, nil
}

func (m *Store) RemovePurchasedCourse(ctx context.Context, userID, courseID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, database.ErrNotFound
	}
	for i, pc := range u.PurchasedCourses {
		if pc.CourseID == courseID {
			u.PurchasedCourses = append(u.PurchasedCourses[:i:i], u.PurchasedCourses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *Store) SetActiveSubscription(ctx context.Context, userID uint, sub model.ActiveSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.ActiveSubscription = sub
	return nil
}

func (m *Store) LinkTransaction(ctx context.Context, userID, transactionID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[userID] == nil {
		m.links[userID] = make(map[uint]struct{})
	}
	m.links[userID][transactionID] = struct{}{}
	return nil
}

func (m *Store) UnlinkTransaction(ctx context.Context, userID, transactionID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[userID][transactionID]; !ok {
		return false, nil
	}
	delete(m.links[userID], transactionID)
	return true, nil
}

func (m *Store) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		sub := &u.ActiveSubscription
		if sub.Status == model.SubscriptionStatusActive && sub.EndDate != nil && sub.EndDate.Before(now) {
			sub.Status = model.SubscriptionStatusExpired
			u.Version++
			n++
		}
	}
	return n, nil
}

type memorySnapshot struct {
	users        map[uint]*model.User
	transactions map[uint]*model.Transaction
	links        map[uint]map[uint]struct{}
	nextTxnID    uint
}

func (m *Store) snapshot() memorySnapshot {
	s := memorySnapshot{
		users:        make(map[uint]*model.User, len(m.users)),
		transactions: make(map[uint]*model.Transaction, len(m.transactions)),
		links:        make(map[uint]map[uint]struct{}, len(m.links)),
		nextTxnID:    m.nextTxnID,
	}
	for id, u := range m.users {
		s.users[id] = cloneUser(u)
	}
	for id, t := range m.transactions {
		s.transactions[id] = cloneTxn(t)
	}
	for uid, set := range m.links {
		cp := make(map[uint]struct{}, len(set))
		for k := range set {
			cp[k] = struct{}{}
		}
		s.links[uid] = cp
	}
	return s
}

// restore keeps version bumps made by simulated concurrent writers
func (m *Store) restore(s memorySnapshot) {
	for id, n := range m.external {
		if u, ok := s.users[id]; ok {
			u.Version += n
		}
	}
	m.users = s.users
	m.transactions = s.transactions
	m.links = s.links
	m.nextTxnID = s.nextTxnID
}

func cloneUser(u *model.User) *model.User {
	cp := *u
	cp.PurchasedCourses = append([]model.PurchasedCourse(nil), u.PurchasedCourses...)
	return &cp
}

func cloneTxn(t *model.Transaction) *model.Transaction {
	cp := *t
	cp.RefundStatus = copyString(t.RefundStatus)
	cp.CartItems = append(cp.CartItems[:0:0], t.CartItems...)
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
