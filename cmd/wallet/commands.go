package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-dolar-client/guard"
	"github.com/jrsteele09/go-dolar-client/notify"
	"github.com/jrsteele09/go-dolar-client/rates"
	"github.com/jrsteele09/go-dolar-client/session"
	"github.com/jrsteele09/go-dolar-client/transactions"
	"github.com/jrsteele09/go-dolar-client/validation"
	"github.com/pkg/errors"
)

const usage = `commands:
  login <email> [password]   sign in (reuses the remembered password when omitted)
  logout                     sign out and wipe the stored session
  whoami                     show the signed-in user and balances
  refresh                    re-fetch the signed-in user
  rates                      list exchange rates and the conversion rate
  transactions               list transactions and totals
  create <type> <pesos> <dollars> [description]
                             submit a transaction (type ids 1-6)
  navigate <path>            resolve a path through the route guard
  routes                     list the routes
  help                       show this text
  exit                       leave the shell`

// backend is what the wallet needs from the remote API or the demo ledger.
type backend interface {
	session.AuthAPI
	transactions.API
}

var errUnknownCommand = errors.New("unknown command")

type command struct {
	route guard.Name // route the command renders, checked by the guard; empty means public
	run   func(ctx context.Context, args []string) error
}

type wallet struct {
	out      io.Writer
	session  *session.Session
	manager  *session.Manager
	guard    *guard.Guard
	ledger   *transactions.Service
	rates    *rates.Aggregator
	validate *validation.Validator
	commands map[string]command
}

func newWallet(sess *session.Session, api backend, agg *rates.Aggregator, n notify.Notifier, out io.Writer) *wallet {
	manager := session.NewManager(sess, api, session.WithNotifier(n))
	w := &wallet{
		out:      out,
		session:  sess,
		manager:  manager,
		guard:    guard.New(manager),
		ledger:   transactions.NewService(api, manager, transactions.WithNotifier(n)),
		rates:    agg,
		validate: validation.NewValidator(),
	}
	w.commands = map[string]command{
		"login":        {route: guard.Login, run: w.login},
		"logout":       {run: w.logout},
		"whoami":       {route: guard.Profile, run: w.whoami},
		"refresh":      {route: guard.Profile, run: w.refresh},
		"rates":        {route: guard.Exchange, run: w.listRates},
		"transactions": {route: guard.Transactions, run: w.listTransactions},
		"create":       {route: guard.Transactions, run: w.create},
		"navigate":     {run: w.navigate},
		"routes":       {run: w.listRoutes},
		"help":         {run: w.help},
	}
	return w
}

// exec runs one command after the guard lets it through. A redirect is printed, not failed.
func (w *wallet) exec(ctx context.Context, args []string) error {
	cmd, ok := w.commands[args[0]]
	if !ok {
		return errors.Wrapf(errUnknownCommand, "%q", args[0])
	}
	if cmd.route != "" {
		route, _ := guard.ByName(cmd.route)
		if action := w.guard.Check(ctx, route); action != guard.Allow {
			target, _ := guard.ByName(action.Target())
			fmt.Fprintf(w.out, "%s: redirected to %s\n", args[0], target.Path)
			return nil
		}
	}
	return cmd.run(ctx, args[1:])
}

func (w *wallet) shell(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(w.out, "> ")
	for scanner.Scan() {
		args := strings.Fields(scanner.Text())
		switch {
		case len(args) == 0:
		case args[0] == "exit" || args[0] == "quit":
			return nil
		default:
			if err := w.exec(ctx, args); err != nil {
				fmt.Fprintf(w.out, "error: %v\n", err)
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(w.out, "> ")
	}
	return scanner.Err()
}

func (w *wallet) login(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: login <email> [password]")
	}
	password := w.session.UserPass()
	if len(args) > 1 {
		password = args[1]
	}
	if err := w.validate.ValidateCredentials(args[0], password); err != nil {
		return err
	}
	w.manager.Login(ctx, args[0], password)
	return nil
}

func (w *wallet) logout(ctx context.Context, _ []string) error {
	w.manager.Logout(ctx)
	return nil
}

func (w *wallet) whoami(_ context.Context, _ []string) error {
	u := w.manager.User()
	fmt.Fprintf(w.out, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(w.out, "  pesos:   %s\n", transactions.FormatAmount(u.Pesos, transactions.Pesos))
	fmt.Fprintf(w.out, "  dólares: %s\n", transactions.FormatAmount(u.Dollars, transactions.Dollars))
	if u.LastUpdate != "" {
		fmt.Fprintf(w.out, "  actualizado: %s\n", transactions.FormatDate(u.LastUpdate, time.Local))
	}
	return nil
}

func (w *wallet) refresh(ctx context.Context, _ []string) error {
	email := ""
	if u := w.manager.User(); u != nil {
		email = u.Email
	}
	if w.manager.RefreshUser(ctx, email) == nil {
		return errors.New("could not refresh user")
	}
	return w.whoami(ctx, nil)
}

func (w *wallet) listRates(ctx context.Context, _ []string) error {
	for _, r := range w.rates.AllRates(ctx) {
		fmt.Fprintf(w.out, "%-16s compra %-14s venta %s\n", r.Name,
			transactions.FormatAmount(r.Buy, transactions.Pesos),
			transactions.FormatAmount(r.Sell, transactions.Pesos))
	}
	fmt.Fprintf(w.out, "conversión: %s\n", transactions.FormatAmount(w.rates.ConversionRate(ctx), transactions.Pesos))
	return nil
}

func (w *wallet) listTransactions(ctx context.Context, _ []string) error {
	if err := w.ledger.Fetch(ctx, ""); err != nil {
		return err
	}
	for _, tx := range w.ledger.Recent() {
		fmt.Fprintf(w.out, "#%-4d %-20s %-18s %-16s %s\n", tx.ID,
			transactions.FormatDate(tx.Date, time.Local),
			transactions.TypeName(tx.TypeID),
			transactions.FormatAmount(tx.Pesos, transactions.Pesos),
			transactions.FormatAmount(tx.Dollars, transactions.Dollars))
	}
	totals := w.ledger.Totals()
	fmt.Fprintf(w.out, "%d transacciones, total %s / %s\n", w.ledger.Count(),
		transactions.FormatAmount(totals.Pesos, transactions.Pesos),
		transactions.FormatAmount(totals.Dollars, transactions.Dollars))
	return nil
}

func (w *wallet) create(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: create <type> <pesos> <dollars> [description]")
	}
	typeID, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(err, "[create] type")
	}
	pesos, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return errors.Wrap(err, "[create] pesos")
	}
	dollars, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return errors.Wrap(err, "[create] dollars")
	}
	req := transactions.CreateRequest{
		TypeID:      typeID,
		Pesos:       pesos,
		Dollars:     dollars,
		Description: strings.Join(args[3:], " "),
	}
	if err := w.validate.ValidateTransaction(req); err != nil {
		return err
	}
	w.ledger.Create(ctx, req)
	return nil
}

func (w *wallet) navigate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: navigate <path>")
	}
	route, err := w.guard.Navigate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "%s (%s)\n", route.Path, route.Name)
	return nil
}

func (w *wallet) listRoutes(context.Context, []string) error {
	list := guard.Routes()
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	for _, r := range list {
		auth := ""
		if r.RequiresAuth {
			auth = "auth"
		}
		fmt.Fprintf(w.out, "%-18s %-16s %s\n", r.Path, r.Name, auth)
	}
	return nil
}

func (w *wallet) help(context.Context, []string) error {
	fmt.Fprintln(w.out, usage)
	return nil
}
