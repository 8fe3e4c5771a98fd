package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/jrsteele09/go-dolar-client/transactions"
	"github.com/jrsteele09/go-dolar-client/users"
	"github.com/pkg/errors"
)

// Login posts the credentials. A 401 here means bad credentials, so the refresh
// handling is skipped and the session is never cleared by a failed login.
func (c *Client) Login(ctx context.Context, credentials authmodel.AuthRequest) (*authmodel.AuthResponse, error) {
	req, err := newPendingRequest(http.MethodPost, RouteLogin, credentials)
	if err != nil {
		return nil, err
	}
	req.skipRefresh = true
	raw, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var resp authmodel.AuthResponse
	if err := json.Unmarshal(authmodel.Unwrap(raw), &resp); err != nil {
		return nil, errors.Wrap(err, "[apiclient.Login] decode")
	}
	return &resp, nil
}

func (c *Client) GetUsers(ctx context.Context) ([]*users.User, error) {
	raw, err := c.Get(ctx, RouteUsers)
	if err != nil {
		return nil, err
	}
	list, err := users.ParseList(raw)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient.GetUsers] decode")
	}
	return list, nil
}

// GetUserByEmail returns the user record, or nil when the backend answers with no object.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return c.getUser(ctx, RouteUserByEmail+url.PathEscape(email))
}

func (c *Client) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	return c.getUser(ctx, RouteUserByID+url.PathEscape(id))
}

func (c *Client) getUser(ctx context.Context, path string) (*users.User, error) {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	u, err := users.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "[apiclient] decode user from %s", path)
	}
	return u, nil
}

// CreateUser forwards the registration payload as is and returns the raw reply.
func (c *Client) CreateUser(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.Post(ctx, RouteCreateUser, payload)
}

func (c *Client) UpdateUser(ctx context.Context, id string, payload any) (json.RawMessage, error) {
	raw, err := c.Put(ctx, RouteUpdateUser+url.PathEscape(id), payload)
	if err != nil {
		return nil, err
	}
	return authmodel.Unwrap(raw), nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) (json.RawMessage, error) {
	return c.Delete(ctx, RouteDeleteUser+url.PathEscape(id))
}

// RecoverPassword sends the email as a bare JSON string, the shape the backend expects.
func (c *Client) RecoverPassword(ctx context.Context, email string) (json.RawMessage, error) {
	return c.Post(ctx, RouteRecoverPassword, strings.TrimSpace(email))
}

func (c *Client) ChangePassword(ctx context.Context, req authmodel.ChangePasswordRequest) (json.RawMessage, error) {
	raw, err := c.Post(ctx, RouteChangePassword, req)
	if err != nil {
		return nil, err
	}
	return authmodel.Unwrap(raw), nil
}

// GetWalletBalance is best effort: backend revisions disagree on this route.
func (c *Client) GetWalletBalance(ctx context.Context, userID string) (json.RawMessage, error) {
	raw, err := c.Get(ctx, RouteWalletBalance+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}
	return authmodel.Unwrap(raw), nil
}

func (c *Client) GetExchangeRate(ctx context.Context) (json.RawMessage, error) {
	raw, err := c.Get(ctx, RouteExchangeRate)
	if err != nil {
		return nil, err
	}
	return authmodel.Unwrap(raw), nil
}

// NormalizeTransaction builds the wire body: user id under both names, missing date
// set to now, empty description sent as null.
func NormalizeTransaction(req transactions.CreateRequest, now time.Time) transactions.CreateBody {
	body := transactions.CreateBody{
		UserID:            req.UserID,
		TransactionUserID: req.UserID,
		Pesos:             req.Pesos,
		Dollars:           req.Dollars,
		TypeID:            req.TypeID,
		Date:              req.Date,
	}
	if req.Description != "" {
		desc := req.Description
		body.Description = &desc
	}
	if body.Date == "" {
		body.Date = now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return body
}

// CreateTransaction returns the backend's raw reply; deciding success is up to the caller.
func (c *Client) CreateTransaction(ctx context.Context, req transactions.CreateRequest) (json.RawMessage, error) {
	return c.Post(ctx, RouteCreateTransaction, NormalizeTransaction(req, c.nowTime()))
}

func (c *Client) GetTransactionsByUser(ctx context.Context, userID string) ([]transactions.Transaction, error) {
	raw, err := c.Get(ctx, RouteTransactionsByUser+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}
	list, err := transactions.ParseList(raw)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient.GetTransactionsByUser] decode")
	}
	return list, nil
}

func (c *Client) GetTransaction(ctx context.Context, id int64) (*transactions.Transaction, error) {
	raw, err := c.Get(ctx, RouteTransaction+strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	var tx transactions.Transaction
	if err := json.Unmarshal(authmodel.Unwrap(raw), &tx); err != nil {
		return nil, errors.Wrap(err, "[apiclient.GetTransaction] decode")
	}
	return &tx, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, payload transactions.CreateRequest) (json.RawMessage, error) {
	return c.Put(ctx, RouteTransaction+strconv.FormatInt(id, 10), payload)
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.Delete(ctx, RouteTransaction+strconv.FormatInt(id, 10))
}
