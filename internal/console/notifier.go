package console

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

const (
	defaultNotificationLimit = 20
	subscriberBuffer         = 16
)

// Notifier collects transient notifications for one workspace. While a live
// subscriber is attached, notifications go straight to it; otherwise they
// queue until the next page render drains them.
type Notifier struct {
	clock Clock
	limit int
	log   zerolog.Logger

	mu      sync.Mutex
	pending []domain.Notification
	subs    map[int]chan domain.Notification
	nextSub int
}

// NewNotifier keeps at most limit undelivered notifications, dropping the
// oldest first.
func NewNotifier(clock Clock, limit int, log zerolog.Logger) *Notifier {
	if clock == nil {
		clock = SystemClock
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return &Notifier{
		clock: clock,
		limit: limit,
		log:   log,
		subs:  make(map[int]chan domain.Notification),
	}
}

func (n *Notifier) Success(msg string) { n.Push(domain.NotifySuccess, msg) }

func (n *Notifier) Error(msg string) { n.Push(domain.NotifyError, msg) }

// Push records a notification.
func (n *Notifier) Push(kind domain.NotificationKind, msg string) {
	note := domain.Notification{Kind: kind, Message: msg, At: n.clock.Now().UTC()}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.log.Debug().Str("kind", string(kind)).Str("message", msg).Msg("notification")

	if len(n.subs) > 0 {
		for _, ch := range n.subs {
			select {
			case ch <- note:
			default:
				n.log.Warn().Str("message", msg).Msg("notification subscriber full, dropping")
			}
		}
		return
	}

	n.pending = append(n.pending, note)
	if over := len(n.pending) - n.limit; over > 0 {
		n.pending = append([]domain.Notification(nil), n.pending[over:]...)
	}
}

// Drain returns and clears the queued notifications, oldest first.
func (n *Notifier) Drain() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.pending
	n.pending = nil
	if out == nil {
		out = []domain.Notification{}
	}
	return out
}

// Subscribe attaches a live receiver. Queued notifications are handed over
// first. The returned cancel func detaches and closes the channel.
func (n *Notifier) Subscribe() (<-chan domain.Notification, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan domain.Notification, subscriberBuffer+len(n.pending))
	for _, note := range n.pending {
		ch <- note
	}
	n.pending = nil

	id := n.nextSub
	n.nextSub++
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(ch)
			}
		})
	}
}

// close detaches every subscriber.
func (n *Notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
