package chat

import (
	"context"
	"math/rand"
	"strings"
)

const presentation = "¡Holaaa! Soy tu amiguito Botito, el chat-bot de Dolarito 🤖✨💸"

var botPhrases = []string{
	"Traé tus pesitos y llevate dolaritos, ¡que no se devalúen tus sueñitos! 💭",
	"Si juntás moneditas, yo te doy verdecitos 🌱",
	"¡No guardes los pesitos en el colchoncito, que se te achican solitos! 🛏️",
	"¡Haceme casito y vas a tener tu bolsillito llenito! 🤑",
	"¡Yo te ayudo con tus dolaritos, pero vos traé la buena ondita! 🌈",
	"¡Tu billeterita va a estar más gordita con mis dolaritos! 🐷",
	"¡Guardá tus verdecitos que te van a dar tranquilitos! 💤",
	"¡Metele ganitas, que los dolaritos no se consiguen solitos! 💪",
	"¡Traé tus billetitos que yo los vuelvo fuertitos 💪💵",
	"¡Traé tus pesitos flaquitos y los volvemos dolaritos gorditos! 🐷",
	"¡Con Botito, tus pesitos pasan de humilditos a internacionalitos! 🌍",
	"¡Traé tus ahorritos chiquititos, que yo los hago crecer grandecitos! 🌱📈",
}

type rule struct {
	match func(t string) bool
	reply string
}

func containsAny(words ...string) func(string) bool {
	return func(t string) bool {
		for _, w := range words {
			if strings.Contains(t, w) {
				return true
			}
		}
		return false
	}
}

func containsAll(words ...string) func(string) bool {
	return func(t string) bool {
		for _, w := range words {
			if !strings.Contains(t, w) {
				return false
			}
		}
		return true
	}
}

// Evaluated in order, first match wins.
var rules = []rule{
	{containsAny("hola", "buenas"), presentation},
	{containsAny("precio"), "La cotización actual la podés ver en la sección de Cambio. ¿Querés que te la muestre?"},
	{containsAll("enviar", "dinero"), "Para transferir dinero, andá a Transacciones > Nueva transferencia (si tu cuenta lo permite)."},
	{containsAny("registro", "crear", "cuenta"), "Podés crear una cuenta desde la pantalla de registro. ¿Querés que te redirija?"},
	{containsAny("ayuda", "soporte"), "Podés contactarnos en soporte@dolarito.local o usar el formulario de contacto."},
}

// Local is the rule based responder used when no inference credential is configured.
type Local struct {
	intn func(n int) int
}

type LocalOption func(*Local)

// WithIntn replaces the random source used to pick a fallback phrase.
func WithIntn(intn func(n int) int) LocalOption {
	return func(l *Local) {
		l.intn = intn
	}
}

func NewLocal(opts ...LocalOption) *Local {
	l := &Local{intn: rand.Intn}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (*Local) Name() string { return "local" }

func (l *Local) Reply(_ context.Context, message string) (string, error) {
	return l.reply(message), nil
}

func (l *Local) reply(message string) string {
	t := strings.ToLower(strings.TrimSpace(message))
	if t == "" {
		return presentation
	}
	for _, r := range rules {
		if r.match(t) {
			return r.reply
		}
	}
	return botPhrases[l.intn(len(botPhrases))]
}
