package guard

import (
	"strings"
)

// Name identifies a route.
type Name string

const (
	Home           Name = "home"
	Login          Name = "login"
	Landing        Name = "landing"
	ForgotPassword Name = "forgot-password"
	Register       Name = "register"
	Wallet         Name = "wallet"
	Transactions   Name = "transactions"
	Profile        Name = "profile"
	Exchange       Name = "exchange"
	NotFound       Name = "not-found"
)

// Route is a navigable page.
type Route struct {
	Path         string
	Name         Name
	RequiresAuth bool
}

var routes = []Route{
	{Path: "/home", Name: Home, RequiresAuth: true},
	{Path: "/login", Name: Login},
	{Path: "/landing", Name: Landing},
	{Path: "/forgot-password", Name: ForgotPassword},
	{Path: "/register", Name: Register},
	{Path: "/wallet", Name: Wallet, RequiresAuth: true},
	{Path: "/transactions", Name: Transactions, RequiresAuth: true},
	{Path: "/profile", Name: Profile, RequiresAuth: true},
	{Path: "/exchange", Name: Exchange, RequiresAuth: true},
}

var (
	byPath = make(map[string]Route, len(routes))
	byName = make(map[Name]Route, len(routes)+1)
)

func init() {
	for _, r := range routes {
		byPath[r.Path] = r
		byName[r.Name] = r
	}
	byName[NotFound] = Route{Path: "/404", Name: NotFound}
}

// Routes returns the route table.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// ByName returns the route registered under name.
func ByName(name Name) (Route, bool) {
	r, ok := byName[name]
	return r, ok
}

// Resolve maps a path to its route, following static redirects. "/" goes home when a
// token exists and to landing otherwise; the retired "/send-money" goes to
// transactions; unknown paths resolve to not-found.
func Resolve(path string, hasToken bool) Route {
	path = normalize(path)
	switch path {
	case "/":
		if hasToken {
			return byName[Home]
		}
		return byName[Landing]
	case "/send-money":
		return byName[Transactions]
	}
	if r, ok := byPath[path]; ok {
		return r
	}
	return Route{Path: path, Name: NotFound}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
