package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Withdrawal Repo ---

// memWithdrawal keeps the raw stored status string alongside the domain view
// so tests can seed rows with legacy spellings and the guarded update matches
// them the same way the SQL implementation does.
type memWithdrawal struct {
	w         domain.WithdrawalRequest
	rawStatus string
}

type inMemoryWithdrawalRepo struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*memWithdrawal
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{rows: make(map[uuid.UUID]*memWithdrawal)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, w *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.rows[w.ID] = &memWithdrawal{w: cp, rawStatus: string(w.Status)}
	return nil
}

// seedRaw inserts a row with an arbitrary raw status string, mimicking
// migrated data that predates status normalization.
func (r *inMemoryWithdrawalRepo) seedRaw(w domain.WithdrawalRequest, rawStatus string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[w.ID] = &memWithdrawal{w: w, rawStatus: rawStatus}
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	status, err := domain.ParseStatus(row.rawStatus)
	if err != nil {
		return nil, fmt.Errorf("corrupt status %q: %w", row.rawStatus, err)
	}
	cp := row.w
	cp.Status = status
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.WithdrawalRequest
	for _, row := range r.rows {
		status, err := domain.ParseStatus(row.rawStatus)
		if err != nil {
			return nil, 0, fmt.Errorf("corrupt status %q: %w", row.rawStatus, err)
		}
		if params.UserID != nil && row.w.UserID != *params.UserID {
			continue
		}
		if params.Status != nil {
			matched := false
			for _, spelling := range params.Status.Spellings() {
				if row.rawStatus == spelling {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		cp := row.w
		cp.Status = status
		result = append(result, cp)
	}

	sort.Slice(result, func(i, j int) bool {
		var less bool
		if params.SortBy == "amount" {
			less = result[i].Amount < result[j].Amount
		} else {
			less = result[i].RequestedAt.Before(result[j].RequestedAt)
		}
		if params.SortAsc {
			return less
		}
		return !less
	})

	total := int64(len(result))
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.WithdrawalRequest{}, total, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryWithdrawalRepo) UpdateStatusGuarded(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.WithdrawalStatus, operatorID uuid.UUID, processedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, spelling := range from.Spellings() {
		if row.rawStatus == spelling {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	row.rawStatus = string(to)
	row.w.Status = to
	row.w.OperatorID = &operatorID
	row.w.ProcessedAt = &processedAt
	return true, nil
}

func (r *inMemoryWithdrawalRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.w.Refunded {
		return false, nil
	}
	row.w.Refunded = true
	return true, nil
}

func (r *inMemoryWithdrawalRepo) Stats(ctx context.Context) (*ports.WithdrawalStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := &ports.WithdrawalStats{}
	for _, row := range r.rows {
		status, err := domain.ParseStatus(row.rawStatus)
		if err != nil {
			return nil, fmt.Errorf("corrupt status %q: %w", row.rawStatus, err)
		}
		s.Total++
		switch status.CanonicalTarget() {
		case domain.StatusPending:
			s.Pending++
		case domain.StatusConfirmed:
			s.Confirmed++
		case domain.StatusScheduled:
			s.Scheduled++
		case domain.StatusRejected:
			s.Rejected++
			if row.w.Refunded {
				s.TotalRefunded += row.w.Amount
			}
		case domain.StatusPaid:
			s.Paid++
			s.TotalPaidOut += row.w.Amount
		}
	}
	return s, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.WalletAccount
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{accounts: make(map[uuid.UUID]*domain.WalletAccount)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, account *domain.WalletAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.UserID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// GetByUserIDForUpdate relies on the serializing transactor for isolation:
// only one transaction runs at a time, so a plain read is an exclusive one.
func (r *inMemoryWalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.WalletAccount, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[userID]
	if !ok {
		return fmt.Errorf("wallet account not found")
	}
	if newBalance < 0 {
		return fmt.Errorf("balance check violation: %d", newBalance)
	}
	a.Balance = newBalance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{}
}

func (r *inMemoryLedgerRepo) Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryLedgerRepo) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, e := range r.entries {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryLedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LedgerEntry
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if r.entries[i].UserID == userID {
			result = append(result, r.entries[i])
		}
	}
	return result, nil
}

func (r *inMemoryLedgerRepo) countByUser(userID uuid.UUID, kind domain.LedgerEntryKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.UserID == userID && e.Kind == kind {
			n++
		}
	}
	return n
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.RWMutex
	records []domain.AdminAudit
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AdminAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *entry)
	return nil
}

func (r *inMemoryAuditRepo) byAction(action domain.AuditAction) []domain.AdminAudit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.AdminAudit
	for _, rec := range r.records {
		if rec.Action == action {
			result = append(result, rec)
		}
	}
	return result
}

// --- Collecting Notifier ---

type collectingNotifier struct {
	mu     sync.Mutex
	events []ports.TransitionEvent
}

func newCollectingNotifier() *collectingNotifier {
	return &collectingNotifier{}
}

func (n *collectingNotifier) Notify(ctx context.Context, event ports.TransitionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *collectingNotifier) all() []ports.TransitionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.TransitionEvent(nil), n.events...)
}

// --- Serializing Transactor ---

// memTransactor runs at most one transaction at a time and snapshots the
// repos on Begin so Rollback genuinely undoes writes. This gives the
// in-memory repos the same semantics the SQL implementation gets from row
// locks and transaction rollback, so concurrency tests exercise real
// interleavings at the service boundary while each transaction body remains
// atomic.
type memTransactor struct {
	mu          sync.Mutex
	withdrawals *inMemoryWithdrawalRepo
	wallets     *inMemoryWalletRepo
	ledger      *inMemoryLedgerRepo
}

func newMemTransactor(withdrawals *inMemoryWithdrawalRepo, wallets *inMemoryWalletRepo, ledger *inMemoryLedgerRepo) *memTransactor {
	return &memTransactor{withdrawals: withdrawals, wallets: wallets, ledger: ledger}
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{restore: t.snapshot(), release: t.mu.Unlock}, nil
}

func (t *memTransactor) snapshot() func() {
	t.withdrawals.mu.RLock()
	withdrawals := make(map[uuid.UUID]*memWithdrawal, len(t.withdrawals.rows))
	for id, row := range t.withdrawals.rows {
		cp := *row
		withdrawals[id] = &cp
	}
	t.withdrawals.mu.RUnlock()

	t.wallets.mu.RLock()
	wallets := make(map[uuid.UUID]*domain.WalletAccount, len(t.wallets.accounts))
	for id, a := range t.wallets.accounts {
		cp := *a
		wallets[id] = &cp
	}
	t.wallets.mu.RUnlock()

	t.ledger.mu.RLock()
	entries := append([]domain.LedgerEntry(nil), t.ledger.entries...)
	t.ledger.mu.RUnlock()

	return func() {
		t.withdrawals.mu.Lock()
		t.withdrawals.rows = withdrawals
		t.withdrawals.mu.Unlock()

		t.wallets.mu.Lock()
		t.wallets.accounts = wallets
		t.wallets.mu.Unlock()

		t.ledger.mu.Lock()
		t.ledger.entries = entries
		t.ledger.mu.Unlock()
	}
}

// memTx is a pgx.Tx that tracks commit/rollback so the transactor releases
// its slot exactly once, restoring the snapshot on rollback.
type memTx struct {
	restore func()
	release func()
	closed  bool
	mu      sync.Mutex
}

func (t *memTx) finish(rollback bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	if rollback {
		t.restore()
	}
	t.release()
	return nil
}

func (t *memTx) Commit(ctx context.Context) error   { return t.finish(false) }
func (t *memTx) Rollback(ctx context.Context) error { return t.finish(true) }

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
