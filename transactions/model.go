package transactions

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// Transaction type ids as the backend defines them.
const (
	TypePesosDeposit     = 1
	TypePesosWithdrawal  = 2
	TypeDollarDeposit    = 3
	TypeDollarWithdrawal = 4
	TypeDollarPurchase   = 5
	TypeDollarSale       = 6
)

var typeNames = map[int]string{
	TypePesosDeposit:     "Ingreso de pesos",
	TypePesosWithdrawal:  "Retiro de pesos",
	TypeDollarDeposit:    "Ingreso de dólares",
	TypeDollarWithdrawal: "Retiro de dólares",
	TypeDollarPurchase:   "Compra de dólares",
	TypeDollarSale:       "Venta de dólares",
}

// TypeName returns the display name of a transaction type.
func TypeName(typeID int) string {
	if name, ok := typeNames[typeID]; ok {
		return name
	}
	return "Tipo desconocido"
}

// Transaction is a ledger movement. Amounts are signed deltas applied to the balances.
type Transaction struct {
	ID          int64   `json:"transaccionesId"`
	UserID      string  `json:"transaccionesUsuarioId"`
	Pesos       float64 `json:"transaccionesPesos"`
	Dollars     float64 `json:"transaccionesDolares"`
	Date        string  `json:"transaccionesFecha"`
	TypeID      int     `json:"transaccionesTipoId"`
	Description string  `json:"transaccionesDescripcion,omitempty"`
}

// CreateRequest is what callers submit to create a transaction.
type CreateRequest struct {
	UserID      string  `json:"transaccionesUsuarioId"`
	Pesos       float64 `json:"transaccionesPesos"`
	Dollars     float64 `json:"transaccionesDolares"`
	TypeID      int     `json:"transaccionesTipoId"`
	Description string  `json:"transaccionesDescripcion,omitempty"`
	Date        string  `json:"transaccionesFecha,omitempty"`
}

// CreateBody is the normalized wire body. It carries the user id under both names
// because backend revisions disagree on which one they read.
type CreateBody struct {
	UserID            string  `json:"userId"`
	TransactionUserID string  `json:"transaccionesUsuarioId"`
	Pesos             float64 `json:"transaccionesPesos"`
	Dollars           float64 `json:"transaccionesDolares"`
	TypeID            int     `json:"transaccionesTipoId"`
	Description       *string `json:"transaccionesDescripcion"`
	Date              string  `json:"transaccionesFecha"`
}

// Totals is a pair of currency sums.
type Totals struct {
	Pesos   float64 `json:"pesos"`
	Dollars float64 `json:"dolares"`
}

// ParseList decodes a list of transactions from a bare array or a {"data": [...]}
// envelope. Anything else is an empty list.
func ParseList(raw []byte) ([]Transaction, error) {
	res := gjson.ParseBytes(raw)
	if data := res.Get("data"); res.IsObject() && data.IsArray() {
		res = data
	}
	if !res.IsArray() {
		return []Transaction{}, nil
	}
	list := []Transaction{}
	if err := json.Unmarshal([]byte(res.Raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Time parses the transaction date. Unparseable dates sort as the zero time.
func (t Transaction) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, t.Date); err == nil {
			return ts
		}
	}
	return time.Time{}
}
