// Package guard gates navigation on the session state.
package guard

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Action is what the guard tells the navigator to do.
type Action int

const (
	Allow Action = iota
	RedirectLogin
	RedirectHome
	RedirectLanding
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case RedirectLanding:
		return "redirect-landing"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Target returns the route name a redirect points at, or "" for Allow.
func (a Action) Target() Name {
	switch a {
	case RedirectLogin:
		return Login
	case RedirectHome:
		return Home
	case RedirectLanding:
		return Landing
	}
	return ""
}

// Decide applies the navigation rules in order:
// authenticated on landing goes home; an unauthenticated visit to a protected route goes
// to landing for home and to login otherwise; authenticated on login or register goes
// home; everything else is allowed.
func Decide(target Route, authenticated bool) Action {
	if target.Name == Landing && authenticated {
		return RedirectHome
	}
	if target.RequiresAuth && !authenticated {
		if target.Name == Home {
			return RedirectLanding
		}
		return RedirectLogin
	}
	if (target.Name == Login || target.Name == Register) && authenticated {
		return RedirectHome
	}
	return Allow
}

// Session is the state the guard reads. InitializeAuth is the lazy hydration hook.
type Session interface {
	IsAuthenticated() bool
	HasToken() bool
	InitializeAuth(ctx context.Context)
}

// Guard runs Decide against a live session.
type Guard struct {
	session Session
}

func New(s Session) *Guard {
	return &Guard{session: s}
}

// Check hydrates an unauthenticated session and decides on target.
func (g *Guard) Check(ctx context.Context, target Route) Action {
	if !g.session.IsAuthenticated() {
		g.session.InitializeAuth(ctx)
	}
	return Decide(target, g.session.IsAuthenticated())
}

const maxRedirects = 5

// ErrRedirectLoop is returned when navigation keeps bouncing between routes.
var ErrRedirectLoop = errors.New("redirect loop")

// Navigate resolves path and follows guard redirects until a route is allowed.
func (g *Guard) Navigate(ctx context.Context, path string) (Route, error) {
	route := Resolve(path, g.session.HasToken())
	for i := 0; i < maxRedirects; i++ {
		action := g.Check(ctx, route)
		if action == Allow {
			return route, nil
		}
		log.Debug().Str("from", route.Path).Stringer("action", action).Msg("navigation redirected")
		route, _ = ByName(action.Target())
	}
	return route, ErrRedirectLoop
}
