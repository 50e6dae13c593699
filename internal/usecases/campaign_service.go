package usecases

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/SoulxxMerchant/New/internal/entities"
	"github.com/SoulxxMerchant/New/internal/interfaces"
	"github.com/SoulxxMerchant/New/internal/repository"
)

var (
	ErrCampaignActive   = errors.New("campaign already active")
	ErrCampaignInactive = errors.New("campaign not active")
	ErrNoSessions       = errors.New("no integrated sessions")
	ErrUserBanned       = errors.New("user is banned")
	ErrQuotaExhausted   = errors.New("daily limit reached")
)

// CampaignStatus is a read-only snapshot for the status surfaces.
type CampaignStatus struct {
	Active      bool
	ControlUser int64
	Sessions    int
	Config      entities.CampaignConfig
}

// CampaignService is the campaign state machine: at most one campaign is
// active process-wide, driven by a single recurring timer. All state
// transitions are serialized through one mutex so two concurrent Start
// requests cannot both pass the "not already running" check.
type CampaignService struct {
	sessions  *repository.SessionStore
	quotas    *QuotaService
	deliverer interfaces.Deliverer
	notifier  interfaces.Notifier
	log       zerolog.Logger

	mu          sync.Mutex
	cfg         entities.CampaignConfig
	active      bool
	controlUser int64
	controlChat int64

	cron  *cron.Cron
	entry cron.EntryID // 0 while no recurring timer is registered
	kick  *time.Timer  // fires the first cycle shortly after Start

	// kickDelay is how long after Start the first cycle fires.
	kickDelay time.Duration
	// broadcastDelay throttles the one-shot admin broadcast.
	broadcastDelay time.Duration

	// cycleMu guarantees at most one cycle invocation runs at a time; a
	// firing that arrives while a cycle is still in flight is dropped.
	cycleMu sync.Mutex
}

func NewCampaignService(cfg entities.CampaignConfig, sessions *repository.SessionStore, quotas *QuotaService, deliverer interfaces.Deliverer, notifier interfaces.Notifier, log zerolog.Logger) *CampaignService {
	c := cron.New()
	c.Start()
	return &CampaignService{
		sessions:       sessions,
		quotas:         quotas,
		deliverer:      deliverer,
		notifier:       notifier,
		log:            log,
		cfg:            cfg,
		cron:           c,
		kickDelay:      time.Second,
		broadcastDelay: time.Second,
	}
}

// Start transitions Idle -> Running for the given control user and chat.
// Rejected when a campaign is already active, the session pool is empty, or
// the control user is banned or already over today's limit. Rejections leave
// state untouched.
func (s *CampaignService) Start(userID, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrCampaignActive
	}
	if s.sessions.Count() == 0 {
		return ErrNoSessions
	}

	q := s.quotas.GetOrCreate(userID)
	if q.IsBanned {
		return ErrUserBanned
	}
	if s.quotas.Exhausted(q) {
		return ErrQuotaExhausted
	}

	s.active = true
	s.controlUser = userID
	s.controlChat = chatID
	s.scheduleLocked()
	s.kick = time.AfterFunc(s.kickDelay, s.RunCycle)

	s.log.Info().Int64("user", userID).Int("sessions", s.sessions.Count()).Msg("campaign started")
	return nil
}

// Stop transitions Running -> Idle and cancels the recurring timer. Stopping
// an idle campaign is a no-op reported via ErrCampaignInactive.
func (s *CampaignService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active && s.entry == 0 {
		return ErrCampaignInactive
	}
	s.cancelTimerLocked()
	s.active = false
	s.log.Info().Msg("campaign stopped")
	return nil
}

// IsActive reports the current campaign flag. The cycle runner polls this at
// every loop boundary for cooperative cancellation.
func (s *CampaignService) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Status returns a snapshot for /help and the HTTP status endpoint.
func (s *CampaignService) Status() CampaignStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CampaignStatus{
		Active:      s.active,
		ControlUser: s.controlUser,
		Sessions:    s.sessions.Count(),
		Config:      s.cfg,
	}
}

// SetAdMessage replaces the campaign message text.
func (s *CampaignService) SetAdMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.AdMessage = text
}

// SetMessageDelay sets the delay between sends to different targets,
// clamped to the 5 second floor. Returns the effective value and whether it
// was clamped.
func (s *CampaignService) SetMessageDelay(seconds int) (int, bool) {
	clamped := false
	if seconds < entities.MinMessageDelaySeconds {
		seconds = entities.MinMessageDelaySeconds
		clamped = true
	}
	s.mu.Lock()
	s.cfg.MessageDelaySeconds = seconds
	s.mu.Unlock()
	return seconds, clamped
}

// SetCycleDelay sets the delay between full campaign cycles, clamped to the
// 60 second floor. When a campaign is running the recurring timer is replaced
// immediately with the new interval: the old one is removed first so exactly
// one timer exists afterward, and a near-immediate first cycle is armed the
// same way Start does. Returns the effective value, whether it was clamped,
// and whether a live reschedule happened.
func (s *CampaignService) SetCycleDelay(seconds int) (int, bool, bool) {
	clamped := false
	if seconds < entities.MinCycleDelaySeconds {
		seconds = entities.MinCycleDelaySeconds
		clamped = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.CycleDelaySeconds = seconds

	rescheduled := false
	if s.active {
		if s.entry != 0 {
			s.cron.Remove(s.entry)
			s.entry = 0
		}
		s.scheduleLocked()
		// A reschedule also fires a near-immediate cycle, same as Start;
		// without this the first run under the new interval would be a
		// full interval away.
		if s.kick != nil {
			s.kick.Stop()
		}
		s.kick = time.AfterFunc(s.kickDelay, s.RunCycle)
		rescheduled = true
	}
	return seconds, clamped, rescheduled
}

// TimerCount returns how many recurring timers are registered. Always 0 or 1.
func (s *CampaignService) TimerCount() int {
	return len(s.cron.Entries())
}

// deactivate flips the campaign flag off without touching the timer. Used by
// the cycle runner when it detects ban or quota exhaustion mid-cycle; the
// timer is removed at cycle exit.
func (s *CampaignService) deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// haltTimer removes the recurring timer after a self-terminating cycle.
func (s *CampaignService) haltTimer() {
	s.mu.Lock()
	s.active = false
	s.cancelTimerLocked()
	s.mu.Unlock()
}

func (s *CampaignService) scheduleLocked() {
	interval := time.Duration(s.cfg.CycleDelaySeconds) * time.Second
	s.entry = s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.RunCycle))
}

func (s *CampaignService) cancelTimerLocked() {
	if s.kick != nil {
		s.kick.Stop()
		s.kick = nil
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}
}

func shortToken(token string) string {
	if len(token) > 10 {
		return token[:10] + "..."
	}
	return token
}

func formatHaltReason(banned bool, limit int) string {
	if banned {
		return "banned"
	}
	return fmt.Sprintf("hit the daily limit of %d messages", limit)
}
