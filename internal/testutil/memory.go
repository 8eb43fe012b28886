// Package testutil holds in-memory stores that mirror the Postgres and Redis
// repositories closely enough for service and resolver tests.
package testutil

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/repository"
)

// Store is a shared in-memory database. Its views implement the repository
// interfaces and honour the same unique constraints and cascades as the schema.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	now     func() time.Time
	account map[int64]domain.Account
	tickets map[int64]domain.Ticket
	answers map[int64]domain.TicketAnswer
	coupons map[int64]domain.Coupon
	actions map[int64]domain.ActionToken
	refresh map[string]refreshEntry
}

type refreshEntry struct {
	accountID int64
	expiresAt time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:     time.Now,
		account: map[int64]domain.Account{},
		tickets: map[int64]domain.Ticket{},
		answers: map[int64]domain.TicketAnswer{},
		coupons: map[int64]domain.Coupon{},
		actions: map[int64]domain.ActionToken{},
		refresh: map[string]refreshEntry{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func uniqueViolation(table, constraint string) error {
	return &pgconn.PgError{Code: "23505", TableName: table, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

// Accounts returns the account repository view.
func (s *Store) Accounts() repository.AccountRepository { return accountRepo{s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Answers returns the ticket answer repository view.
func (s *Store) Answers() repository.TicketAnswerRepository { return answerRepo{s} }

// Coupons returns the coupon repository view.
func (s *Store) Coupons() repository.CouponRepository { return couponRepo{s} }

// ActionTokens returns the action token repository view.
func (s *Store) ActionTokens() repository.ActionTokenRepository { return actionRepo{s} }

// RefreshTokens returns the refresh token store view.
func (s *Store) RefreshTokens() repository.RefreshTokenStore { return refreshStore{s} }

// Transactor returns a transactor that restores the tables when the unit of
// work fails. Refresh tokens live outside the database and are not restored.
func (s *Store) Transactor() repository.Transactor { return storeTx{s} }

type tables struct {
	account map[int64]domain.Account
	tickets map[int64]domain.Ticket
	answers map[int64]domain.TicketAnswer
	coupons map[int64]domain.Coupon
	actions map[int64]domain.ActionToken
}

type storeTx struct{ s *Store }

func (t storeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := t.s.snapshot()
	if err := fn(ctx); err != nil {
		t.s.restore(saved)
		return err
	}
	return nil
}

func (s *Store) snapshot() tables {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tables{
		account: maps.Clone(s.account),
		tickets: maps.Clone(s.tickets),
		answers: maps.Clone(s.answers),
		coupons: maps.Clone(s.coupons),
		actions: maps.Clone(s.actions),
	}
}

func (s *Store) restore(t tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = t.account
	s.tickets = t.tickets
	s.answers = t.answers
	s.coupons = t.coupons
	s.actions = t.actions
}

// LatestActionToken returns the newest token of purpose for the account, as a
// test would read it from the mailed link.
func (s *Store) LatestActionToken(accountID int64, purpose domain.ActionPurpose) (domain.ActionToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		latest domain.ActionToken
		found  bool
	)
	for _, t := range s.actions {
		if t.AccountID == accountID && t.Purpose == purpose && (!found || t.ID > latest.ID) {
			latest, found = t, true
		}
	}
	return latest, found
}

// ExpireActionTokens moves every token's expiry into the past.
func (s *Store) ExpireActionTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.actions {
		t.ExpiresAt = s.now().Add(-time.Minute)
		s.actions[id] = t
	}
}

type accountRepo struct{ s *Store }

func (r accountRepo) checkUnique(a *domain.Account) error {
	for id, other := range r.s.account {
		if id == a.ID {
			continue
		}
		switch {
		case other.Username == a.Username:
			return uniqueViolation("accounts", "accounts_username_key")
		case other.Email == strings.ToLower(a.Email):
			return uniqueViolation("accounts", "accounts_email_key")
		case other.PhoneNumber == a.PhoneNumber:
			return uniqueViolation("accounts", "accounts_phone_number_key")
		case a.SecondaryEmail != nil && other.SecondaryEmail != nil && *other.SecondaryEmail == *a.SecondaryEmail:
			return uniqueViolation("accounts", "accounts_secondary_email_key")
		}
	}
	return nil
}

func (r accountRepo) Create(_ context.Context, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = 0
	if err := r.checkUnique(a); err != nil {
		return err
	}
	a.ID = r.s.id()
	a.Email = strings.ToLower(a.Email)
	a.DateJoined = r.s.now()
	r.s.account[a.ID] = *a
	return nil
}

func (r accountRepo) Update(_ context.Context, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.account[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := r.checkUnique(a); err != nil {
		return err
	}
	a.Email = strings.ToLower(a.Email)
	a.DateJoined = existing.DateJoined
	r.s.account[a.ID] = *a
	return nil
}

func (r accountRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.account[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.account, id)
	for tid, t := range r.s.tickets {
		if t.OwnerID == id {
			r.s.deleteTicket(tid)
		}
	}
	for aid, t := range r.s.actions {
		if t.AccountID == id {
			delete(r.s.actions, aid)
		}
	}
	return nil
}

func (s *Store) deleteTicket(id int64) {
	delete(s.tickets, id)
	for aid, a := range s.answers {
		if a.TicketID == id {
			delete(s.answers, aid)
		}
	}
}

func (r accountRepo) find(match func(domain.Account) bool) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.account {
		if match(a) {
			found := a
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r accountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.ID == id })
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	email = strings.ToLower(email)
	return r.find(func(a domain.Account) bool { return a.Email == email })
}

func (r accountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.Username == username })
}

func (r accountRepo) GetByPhone(_ context.Context, phone string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.PhoneNumber == phone })
}

func (r accountRepo) EmailInUse(_ context.Context, email string) (bool, error) {
	email = strings.ToLower(email)
	_, err := r.find(func(a domain.Account) bool {
		return a.Email == email || (a.SecondaryEmail != nil && *a.SecondaryEmail == email)
	})
	return err == nil, nil
}

func (r accountRepo) List(_ context.Context, limit, offset int) ([]domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]domain.Account, 0, len(r.s.account))
	for _, a := range r.s.account {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.account[t.OwnerID]; !ok {
		return &pgconn.PgError{Code: "23503", TableName: "tickets", ConstraintName: "tickets_owner_id_fkey"}
	}
	t.ID = r.s.id()
	t.CreatedAt = r.s.now()
	r.s.tickets[t.ID] = *t
	return nil
}

func (r ticketRepo) Update(_ context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Title = t.Title
	existing.UserText = t.UserText
	r.s.tickets[t.ID] = existing
	t.OwnerID = existing.OwnerID
	t.CreatedAt = existing.CreatedAt
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r ticketRepo) ListByOwner(_ context.Context, ownerID int64) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range r.s.tickets {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type answerRepo struct{ s *Store }

func (r answerRepo) Create(_ context.Context, a *domain.TicketAnswer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[a.TicketID]; !ok {
		return &pgconn.PgError{Code: "23503", TableName: "ticket_answers", ConstraintName: "ticket_answers_ticket_id_fkey"}
	}
	a.ID = r.s.id()
	a.CreatedAt = r.s.now()
	r.s.answers[a.ID] = *a
	return nil
}

func (r answerRepo) GetLatestByTicket(_ context.Context, ticketID int64) (*domain.TicketAnswer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *domain.TicketAnswer
	for _, a := range r.s.answers {
		if a.TicketID == ticketID && (latest == nil || a.ID > latest.ID) {
			found := a
			latest = &found
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

type couponRepo struct{ s *Store }

func (r couponRepo) Create(_ context.Context, c *domain.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.Code == uuid.Nil {
		c.Code = uuid.New()
	}
	for _, other := range r.s.coupons {
		if other.Code == c.Code {
			return uniqueViolation("coupons", "coupons_code_key")
		}
	}
	c.ID = r.s.id()
	c.StartAt = r.s.now()
	c.CreatedAt = c.StartAt
	r.s.coupons[c.ID] = *c
	return nil
}

func (r couponRepo) SetActive(_ context.Context, id int64, active bool) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.coupons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.IsActive = active
	r.s.coupons[id] = c
	return &c, nil
}

func (r couponRepo) GetByID(_ context.Context, id int64) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.coupons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r couponRepo) GetByCode(_ context.Context, code uuid.UUID) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.coupons {
		if c.Code == code {
			found := c
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r couponRepo) List(_ context.Context) ([]domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Coupon, 0, len(r.s.coupons))
	for _, c := range r.s.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type actionRepo struct{ s *Store }

func (r actionRepo) Create(_ context.Context, t *domain.ActionToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.actions {
		if other.Token == t.Token {
			return uniqueViolation("account_action_tokens", "account_action_tokens_token_key")
		}
	}
	t.ID = r.s.id()
	t.CreatedAt = r.s.now()
	r.s.actions[t.ID] = *t
	return nil
}

func (r actionRepo) GetByToken(_ context.Context, token string) (*domain.ActionToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.actions {
		if t.Token == token {
			found := t
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r actionRepo) MarkUsed(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.actions[id]
	if !ok || t.UsedAt != nil {
		return domain.ErrNotFound
	}
	now := r.s.now()
	t.UsedAt = &now
	r.s.actions[id] = t
	return nil
}

type refreshStore struct{ s *Store }

func (r refreshStore) Issue(_ context.Context, accountID int64, ttl time.Duration) (string, time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	exp := r.s.now().Add(ttl)
	r.s.refresh[token] = refreshEntry{accountID: accountID, expiresAt: exp}
	return token, exp, nil
}

func (r refreshStore) Consume(_ context.Context, token string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry, ok := r.s.refresh[token]
	if !ok || !r.s.now().Before(entry.expiresAt) {
		return 0, repository.ErrRefreshTokenNotFound
	}
	delete(r.s.refresh, token)
	return entry.accountID, nil
}

func (r refreshStore) RevokeAll(_ context.Context, accountID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for token, entry := range r.s.refresh {
		if entry.accountID == accountID {
			delete(r.s.refresh, token)
		}
	}
	return nil
}
