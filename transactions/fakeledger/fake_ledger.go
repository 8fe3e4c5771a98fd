package fakeledger

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/jrsteele09/go-dolar-client/transactions"
	"github.com/jrsteele09/go-dolar-client/users"
	fakeuserrepo "github.com/jrsteele09/go-dolar-client/users/repofake"
)

var _ transactions.API = (*FakeLedger)(nil)

const accessTokenTTL = 15 * time.Minute

// FakeLedger is an in-memory backend: accounts, passwords and transactions.
// Tokens are real HS256 JWTs so claim decoding works against them.
type FakeLedger struct {
	Users *fakeuserrepo.FakeUserRepo

	lock         sync.RWMutex
	passwords    map[string]string // lower-cased email to password
	transactions map[string][]transactions.Transaction
	refreshToken map[string]string // refresh token to email
	nextID       int64
	signingKey   []byte
	nowTime      func() time.Time
}

func NewFakeLedger(nowTime func() time.Time) *FakeLedger {
	if nowTime == nil {
		nowTime = time.Now
	}
	return &FakeLedger{
		Users:        fakeuserrepo.NewFakeUserRepo(),
		passwords:    make(map[string]string),
		transactions: make(map[string][]transactions.Transaction),
		refreshToken: make(map[string]string),
		nextID:       1,
		signingKey:   []byte("fake-ledger-signing-key"),
		nowTime:      nowTime,
	}
}

// NewDemo returns a ledger holding one account with a short history.
// Credentials: demo@dolarito.app / demo.
func NewDemo(nowTime func() time.Time) *FakeLedger {
	l := NewFakeLedger(nowTime)
	now := l.nowTime()
	u := &users.User{ID: "demo-user", Name: "Demo", Email: "demo@dolarito.app", Role: "cliente"}
	u.SetBalance(25000, 15, now)
	_ = l.AddUser(u, "demo")
	l.AddTransaction(transactions.Transaction{UserID: u.ID, TypeID: transactions.TypePesosDeposit,
		Pesos: 50000, Date: now.Add(-24 * time.Hour).Format(time.RFC3339), Description: "Depósito inicial"})
	l.AddTransaction(transactions.Transaction{UserID: u.ID, TypeID: transactions.TypeDollarPurchase,
		Pesos: -25000, Dollars: 25, Date: now.Add(-48 * time.Hour).Format(time.RFC3339), Description: "Cambio de moneda"})
	l.AddTransaction(transactions.Transaction{UserID: u.ID, TypeID: transactions.TypeDollarWithdrawal,
		Dollars: -10, Date: now.Add(-72 * time.Hour).Format(time.RFC3339), Description: "Transferencia"})
	return l
}

func (l *FakeLedger) AddUser(u *users.User, password string) error {
	if err := l.Users.Upsert(u); err != nil {
		return err
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.passwords[strings.ToLower(u.Email)] = password
	return nil
}

// AddTransaction records tx as history without touching balances.
func (l *FakeLedger) AddTransaction(tx transactions.Transaction) transactions.Transaction {
	l.lock.Lock()
	defer l.lock.Unlock()
	tx.ID = l.nextID
	l.nextID++
	l.transactions[tx.UserID] = append(l.transactions[tx.UserID], tx)
	return tx
}

func (l *FakeLedger) Login(_ context.Context, req authmodel.AuthRequest) (*authmodel.AuthResponse, error) {
	l.lock.RLock()
	pass, ok := l.passwords[strings.ToLower(req.UserEmail)]
	l.lock.RUnlock()
	if !ok || pass != req.UserPass {
		return &authmodel.AuthResponse{Resultado: false, Msg: "Usuario o contraseña incorrectos"}, nil
	}
	return l.issue(req.UserEmail)
}

// Refresh rotates the refresh token.
func (l *FakeLedger) Refresh(_ context.Context, refreshToken string) (*authmodel.AuthResponse, error) {
	l.lock.Lock()
	email, ok := l.refreshToken[refreshToken]
	delete(l.refreshToken, refreshToken)
	l.lock.Unlock()
	if !ok {
		return nil, errors.ErrInvalidToken
	}
	return l.issue(email)
}

func (l *FakeLedger) issue(email string) (*authmodel.AuthResponse, error) {
	u, err := l.Users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	now := l.nowTime()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub":       u.ID,
		"userEmail": u.Email,
		"iat":       now.Unix(),
		"exp":       now.Add(accessTokenTTL).Unix(),
	}).SignedString(l.signingKey)
	if err != nil {
		return nil, errors.Wrapf(err, "sign token")
	}
	refresh := "rt-" + u.ID + "-" + now.Format("150405.000000000")

	l.lock.Lock()
	l.refreshToken[refresh] = u.Email
	l.lock.Unlock()

	return &authmodel.AuthResponse{Token: token, RefreshToken: refresh, Resultado: true}, nil
}

func (l *FakeLedger) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	return l.Users.GetByEmail(email)
}

func (l *FakeLedger) GetTransactionsByUser(_ context.Context, userID string) ([]transactions.Transaction, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]transactions.Transaction{}, l.transactions[userID]...), nil
}

// CreateTransaction applies the amounts to the stored balances and answers the way the
// backend does: {"success": true, "data": <transaction>}.
func (l *FakeLedger) CreateTransaction(_ context.Context, req transactions.CreateRequest) (json.RawMessage, error) {
	u, err := l.Users.GetByID(req.UserID)
	if err != nil {
		return json.Marshal(map[string]any{"success": false, "message": "Usuario no encontrado"})
	}
	if u.Pesos+req.Pesos < 0 || u.Dollars+req.Dollars < 0 {
		return json.Marshal(map[string]any{"success": false, "message": "Saldo insuficiente"})
	}
	now := l.nowTime()
	date := req.Date
	if date == "" {
		date = now.UTC().Format(time.RFC3339)
	}
	tx := l.AddTransaction(transactions.Transaction{
		UserID:      req.UserID,
		Pesos:       req.Pesos,
		Dollars:     req.Dollars,
		Date:        date,
		TypeID:      req.TypeID,
		Description: req.Description,
	})
	if err := l.Users.AdjustBalance(u.ID, req.Pesos, req.Dollars); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"success": true, "data": tx})
}
