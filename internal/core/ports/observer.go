package ports

import "github.com/greenleaf/storefront/internal/core/domain"

// Rehydration outcomes reported to an Observer.
const (
	RehydrateRestored = "restored"
	RehydrateEmpty    = "empty"
	RehydrateCorrupt  = "corrupt"
	RehydrateFailed   = "failed"
)

// Observer receives store activity for metrics. Implementations must not block.
type Observer interface {
	Mutation(store, op string)
	SessionTransition(from, to domain.SessionState)
	Rehydrated(store, result string)
	StorageFailed(store, op string)
	ProfilesEvicted(reason string, n int)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) Mutation(string, string)                                    {}
func (NopObserver) SessionTransition(domain.SessionState, domain.SessionState) {}
func (NopObserver) Rehydrated(string, string)                                  {}
func (NopObserver) StorageFailed(string, string)                               {}
func (NopObserver) ProfilesEvicted(string, int)                                {}
