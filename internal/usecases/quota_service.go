package usecases

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SoulxxMerchant/New/internal/entities"
	"github.com/SoulxxMerchant/New/internal/repository"
)

// QuotaService owns the daily send counters and ban/premium flags. All
// mutations go through its mutex; persistence failures are logged and
// swallowed so quota state keeps being served from memory.
type QuotaService struct {
	repo         repository.QuotaRepository
	baseLimit    int
	premiumLimit int

	mu  sync.Mutex
	now func() time.Time
	log zerolog.Logger
}

func NewQuotaService(repo repository.QuotaRepository, baseLimit, premiumLimit int, log zerolog.Logger) *QuotaService {
	return &QuotaService{
		repo:         repo,
		baseLimit:    baseLimit,
		premiumLimit: premiumLimit,
		now:          time.Now,
		log:          log,
	}
}

// GetOrCreate returns the user's quota record, creating it with defaults on
// first lookup. The daily counter is reset here, exactly once per calendar
// day, on the first access after rollover.
func (s *QuotaService) GetOrCreate(userID int64) *entities.UserQuota {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(strconv.FormatInt(userID, 10))
}

func (s *QuotaService) getOrCreateLocked(id string) *entities.UserQuota {
	today := s.now().Format("2006-01-02")

	q, ok, err := s.repo.Get(id)
	if err != nil {
		s.log.Error().Err(err).Str("user", id).Msg("quota read failed, starting from defaults")
		ok = false
	}
	if !ok {
		q = &entities.UserQuota{LastResetDay: today}
		s.persistLocked(id, q)
		return q
	}
	if q.LastResetDay != today {
		q.MessagesToday = 0
		q.LastResetDay = today
		s.persistLocked(id, q)
	}
	return q
}

// SetBanned flips the ban flag and persists. Idempotent.
func (s *QuotaService) SetBanned(userID int64, banned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strconv.FormatInt(userID, 10)
	q := s.getOrCreateLocked(id)
	q.IsBanned = banned
	s.persistLocked(id, q)
}

// SetPremium flips the premium flag and persists. Idempotent.
func (s *QuotaService) SetPremium(userID int64, premium bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strconv.FormatInt(userID, 10)
	q := s.getOrCreateLocked(id)
	q.IsPremium = premium
	s.persistLocked(id, q)
}

// RecordSend counts one confirmed delivery against the user's daily quota.
func (s *QuotaService) RecordSend(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strconv.FormatInt(userID, 10)
	q := s.getOrCreateLocked(id)
	q.MessagesToday++
	s.persistLocked(id, q)
}

// Limit returns the effective daily limit for a record.
func (s *QuotaService) Limit(q *entities.UserQuota) int {
	if q.IsPremium {
		return s.premiumLimit
	}
	return s.baseLimit
}

// Exhausted reports whether the user is at or over today's limit.
func (s *QuotaService) Exhausted(q *entities.UserQuota) bool {
	return q.MessagesToday >= s.Limit(q)
}

// Remaining returns how many sends are left today, floored at zero.
func (s *QuotaService) Remaining(q *entities.UserQuota) int {
	left := s.Limit(q) - q.MessagesToday
	if left < 0 {
		return 0
	}
	return left
}

func (s *QuotaService) persistLocked(id string, q *entities.UserQuota) {
	if err := s.repo.Save(id, q); err != nil {
		// Best effort durability: in-memory state stays authoritative.
		s.log.Error().Err(err).Str("user", id).Msg("quota write failed")
	}
}
