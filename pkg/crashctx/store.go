package crashctx

import (
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/wiretap/pkg/dispatch"
	"github.com/go-go-golems/wiretap/pkg/observable"
)

// Sources bundles the observable inputs the store aggregates. Nil
// entries are simply not tracked; the corresponding snapshot field
// keeps its initial value.
type Sources struct {
	Consent *observable.Value[TrackingConsent]
	User    *observable.Value[UserInfo]
	Network *observable.Value[*NetworkConnectionInfo]
	Carrier *observable.Value[*CarrierInfo]
	View    *observable.Value[*ViewEvent]
}

// Store aggregates several observable values into one Snapshot that any
// thread can read synchronously. All field writes execute on a single
// serial queue; Current is a synchronous round-trip on that same queue,
// so a read can never observe a half-applied update.
type Store struct {
	queue    *dispatch.SerialQueue
	current  Snapshot
	onChange func(Snapshot)
}

type StoreOption func(*Store)

// WithOnChange installs a callback invoked with the full snapshot after
// every single-field update. The callback runs on the store's queue and
// must be fast; snapshots it receives may be stale in other fields.
func WithOnChange(fn func(Snapshot)) StoreOption {
	return func(s *Store) {
		s.onChange = fn
	}
}

// NewStore seeds the snapshot from the sources' current values and
// subscribes to each of them. Subscribers hand the narrow field update
// off to the store's queue, so a slow consumer never blocks a
// publisher.
func NewStore(src Sources, options ...StoreOption) *Store {
	s := &Store{
		queue: dispatch.NewSerialQueue("crash-context"),
	}
	for _, o := range options {
		o(s)
	}

	if src.Consent != nil {
		s.current.TrackingConsent = src.Consent.Get()
		src.Consent.Subscribe(func(_, consent TrackingConsent) {
			s.queue.Async(func() {
				s.current.TrackingConsent = consent
				s.publish()
			})
		})
	}
	if src.User != nil {
		s.current.UserInfo = src.User.Get()
		src.User.Subscribe(func(_, user UserInfo) {
			s.queue.Async(func() {
				s.current.UserInfo = user
				s.publish()
			})
		})
	}
	if src.Network != nil {
		s.current.NetworkConnection = src.Network.Get()
		src.Network.Subscribe(func(_, info *NetworkConnectionInfo) {
			s.queue.Async(func() {
				s.current.NetworkConnection = info
				s.publish()
			})
		})
	}
	if src.Carrier != nil {
		s.current.Carrier = src.Carrier.Get()
		src.Carrier.Subscribe(func(_, info *CarrierInfo) {
			s.queue.Async(func() {
				s.current.Carrier = info
				s.publish()
			})
		})
	}
	if src.View != nil {
		s.current.LastView = src.View.Get()
		src.View.Subscribe(func(_, view *ViewEvent) {
			s.queue.Async(func() {
				s.current.LastView = view
				s.publish()
			})
		})
	}

	return s
}

// publish runs on the store's queue.
func (s *Store) publish() {
	log.Trace().Str("consent", string(s.current.TrackingConsent)).Msg("crash context updated")
	if s.onChange != nil {
		s.onChange(s.current)
	}
}

// Current returns a point-in-time snapshot. Safe to call from any
// goroutine.
func (s *Store) Current() Snapshot {
	var snap Snapshot
	s.queue.Sync(func() {
		snap = s.current
	})
	return snap
}

// Close drains pending field updates. Publishers must have stopped.
func (s *Store) Close() {
	s.queue.Close()
}
