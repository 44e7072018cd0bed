package stream

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/service"
	"github.com/greenleaf/storefront/internal/infrastructure/queue"
)

// Enqueuer is the non-blocking side of queue.Dispatcher.
type Enqueuer interface {
	TryEnqueue(event queue.ChangeEvent) bool
}

// CartView is the cart as pushed to browsers.
type CartView struct {
	Lines      domain.Cart     `json:"lines"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// SessionView is the session as pushed to browsers. The token is never sent.
type SessionView struct {
	State domain.SessionState `json:"state"`
	User  *domain.User        `json:"user,omitempty"`
}

func NewCartView(cart domain.Cart) CartView {
	if cart == nil {
		cart = domain.Cart{}
	}
	return CartView{Lines: cart, TotalItems: cart.TotalItems(), TotalPrice: cart.TotalPrice()}
}

func NewSessionView(s domain.Session) SessionView {
	return SessionView{State: s.State(), User: s.User}
}

// Snapshot returns the current state of p as events, for a newly connected
// browser.
func Snapshot(p *service.Profile) []queue.ChangeEvent {
	now := time.Now().UTC()
	return []queue.ChangeEvent{
		{ProfileID: p.ID, Kind: queue.KindSession, Data: NewSessionView(p.Session.Session()), At: now},
		{ProfileID: p.ID, Kind: queue.KindCart, Data: NewCartView(p.Cart.Lines()), At: now},
	}
}

// Publish subscribes to the stores of every profile opened from now on and
// forwards their changes to q. onDrop, if set, is called for every event q
// had no room for.
func Publish(profiles *service.Profiles, q Enqueuer, onDrop func(kind string), log zerolog.Logger) {
	profiles.OnOpen(func(p *service.Profile) {
		push := func(kind string, data any) {
			e := queue.ChangeEvent{ProfileID: p.ID, Kind: kind, Data: data, At: time.Now().UTC()}
			if q.TryEnqueue(e) {
				return
			}
			log.Warn().Str("profile_id", p.ID).Str("kind", kind).Msg("change stream full, event dropped")
			if onDrop != nil {
				onDrop(kind)
			}
		}
		p.Session.Subscribe(func(s domain.Session) { push(queue.KindSession, NewSessionView(s)) })
		p.Cart.Subscribe(func(c domain.Cart) { push(queue.KindCart, NewCartView(c)) })
	})
}
