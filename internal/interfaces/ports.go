package interfaces

import "context"

// Target is one destination conversation discovered through a session's
// listing call.
type Target struct {
	ID    string
	Title string
}

// DeliverySession is one connected messaging account.
type DeliverySession interface {
	// Name returns a short human-readable identity for progress reports.
	Name() string
	// ListTargets enumerates the group conversations reachable from this
	// session. The listing is bounded in size.
	ListTargets(ctx context.Context) ([]Target, error)
	// Send delivers text to a single target. A *entities.RateLimitError
	// return means the platform throttled this session.
	Send(ctx context.Context, target Target, text string) error
	Close()
}

// Deliverer opens delivery sessions from stored credentials.
type Deliverer interface {
	Connect(ctx context.Context, credential string) (DeliverySession, error)
}

// Notifier delivers progress and status text to a control chat. Best effort:
// implementations log failures instead of returning them.
type Notifier interface {
	Notify(chatID int64, text string)
}
