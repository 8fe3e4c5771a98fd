package transactions

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/jrsteele09/go-dolar-client/notify"
	"github.com/jrsteele09/go-dolar-client/users"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	msgFetchFailed   = "Error al cargar las transacciones"
	msgCreated       = "Transacción creada exitosamente"
	msgCreateFailed  = "Error al crear transacción"
	recentTransLimit = 5
)

// API is the slice of the backend the ledger needs.
type API interface {
	GetTransactionsByUser(ctx context.Context, userID string) ([]Transaction, error)
	CreateTransaction(ctx context.Context, req CreateRequest) (json.RawMessage, error)
}

// Account is the signed-in user the ledger reads from and reports balance changes to.
type Account interface {
	User() *users.User
	UpdateUserBalance(ctx context.Context, pesos, dollars float64) error
}

// Service keeps the current user's transaction list.
type Service struct {
	api      API
	account  Account
	notifier notify.Notifier

	mu           sync.RWMutex
	transactions []Transaction
	loading      bool
}

type ServiceOption func(*Service)

func WithNotifier(n notify.Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

func NewService(api API, account Account, opts ...ServiceOption) *Service {
	s := &Service{
		api:          api,
		account:      account,
		notifier:     notify.LogNotifier{},
		transactions: []Transaction{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch loads the transactions of userID, or of the signed-in user when userID is empty.
// On failure the list is emptied.
func (s *Service) Fetch(ctx context.Context, userID string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if userID == "" {
		if u := s.account.User(); u != nil {
			userID = u.ID
		}
	}
	if userID == "" {
		s.replace(nil)
		s.notifier.Error(msgFetchFailed)
		return errors.ErrUserNotIdentified
	}

	list, err := s.api.GetTransactionsByUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("userId", userID).Msg("fetching transactions")
		s.replace(nil)
		s.notifier.Error(msgFetchFailed)
		return errors.Wrapf(err, "fetch transactions for %s", userID)
	}
	s.replace(list)
	return nil
}

// Create submits a transaction. On an accepted reply it refetches the list and applies
// the amounts as deltas to the cached balance.
func (s *Service) Create(ctx context.Context, req CreateRequest) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	if req.UserID == "" {
		if u := s.account.User(); u != nil {
			req.UserID = u.ID
		}
	}

	raw, err := s.api.CreateTransaction(ctx, req)
	if err != nil {
		log.Err(err).Msg("creating transaction")
		s.notifier.Error(errorMessage(err))
		return false
	}
	reply := authmodel.DecodeEnvelope[Transaction](raw)
	if !Accepted(raw) {
		s.notifier.Error(reply.Reason(authmodel.Message(raw, msgCreateFailed)))
		return false
	}

	if reply.Data != nil {
		log.Debug().Int64("id", reply.Data.ID).Str("userId", reply.Data.UserID).Msg("transaction created")
	}
	s.notifier.Success(msgCreated)
	if err := s.Fetch(ctx, ""); err != nil {
		log.Err(err).Msg("refreshing transactions after create")
	}
	if u := s.account.User(); u != nil {
		if err := s.account.UpdateUserBalance(ctx, u.Pesos+req.Pesos, u.Dollars+req.Dollars); err != nil {
			log.Err(err).Msg("updating cached balance")
		}
	}
	return true
}

// Accepted reports whether a create reply signals success: a bare true, or an object
// with success == true, status == 200 or ok == true.
func Accepted(raw []byte) bool {
	res := gjson.ParseBytes(raw)
	if res.Type == gjson.True {
		return true
	}
	if !res.IsObject() {
		return false
	}
	return res.Get("success").Type == gjson.True ||
		(res.Get("status").Type == gjson.Number && res.Get("status").Num == 200) ||
		res.Get("ok").Type == gjson.True
}

type messager interface {
	Message() string
}

func errorMessage(err error) string {
	var m messager
	if errors.As(err, &m) {
		if msg := m.Message(); msg != "" {
			return msg
		}
	}
	return msgCreateFailed
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Service) replace(list []Transaction) {
	if list == nil {
		list = []Transaction{}
	}
	s.mu.Lock()
	s.transactions = list
	s.mu.Unlock()
}

// IsLoading reports whether a fetch or create is in flight.
func (s *Service) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Transactions returns a copy of the current list.
func (s *Service) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Transaction(nil), s.transactions...)
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

func (s *Service) Totals() Totals {
	return Sum(s.Transactions())
}

func (s *Service) TotalsByType() map[int]Totals {
	return SumByType(s.Transactions())
}

func (s *Service) ByType() map[int][]Transaction {
	return GroupByType(s.Transactions())
}

func (s *Service) Recent() []Transaction {
	return MostRecent(s.Transactions(), recentTransLimit)
}

// Sum adds up both currencies.
func Sum(list []Transaction) Totals {
	var t Totals
	for _, tx := range list {
		t.Pesos += tx.Pesos
		t.Dollars += tx.Dollars
	}
	return t
}

func SumByType(list []Transaction) map[int]Totals {
	out := make(map[int]Totals)
	for _, tx := range list {
		t := out[tx.TypeID]
		t.Pesos += tx.Pesos
		t.Dollars += tx.Dollars
		out[tx.TypeID] = t
	}
	return out
}

func GroupByType(list []Transaction) map[int][]Transaction {
	out := make(map[int][]Transaction)
	for _, tx := range list {
		out[tx.TypeID] = append(out[tx.TypeID], tx)
	}
	return out
}

// MostRecent returns up to n transactions, newest first. list is not modified.
func MostRecent(list []Transaction, n int) []Transaction {
	sorted := append([]Transaction(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time().After(sorted[j].Time())
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
