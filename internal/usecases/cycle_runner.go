package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/SoulxxMerchant/New/internal/entities"
)

// RunCycle performs one full delivery pass through every integrated session.
// It is invoked by the recurring timer and once shortly after Start. A firing
// that arrives while a previous cycle is still in flight returns immediately,
// so at most one cycle executes at a time.
//
// Cancellation is cooperative: a Stop request flips the campaign flag and the
// runner observes it at the top of the session loop, the top of the target
// loop and before each send. An in-flight send is never aborted.
func (s *CampaignService) RunCycle() {
	if !s.cycleMu.TryLock() {
		return
	}
	defer s.cycleMu.Unlock()

	s.mu.Lock()
	if !s.active {
		// Stale firing after a Stop.
		s.mu.Unlock()
		return
	}
	cfg := s.cfg
	userID := s.controlUser
	chatID := s.controlChat
	s.mu.Unlock()

	// Re-resolve the control user before doing any work. Ban or quota
	// exhaustion here is the main path by which a campaign self-terminates.
	q := s.quotas.GetOrCreate(userID)
	if q.IsBanned || s.quotas.Exhausted(q) {
		s.haltTimer()
		reason := formatHaltReason(q.IsBanned, s.quotas.Limit(q))
		s.notifier.Notify(chatID, fmt.Sprintf("🛑 Campaign Halted!\n\nReason: Control user %s.", reason))
		return
	}

	ctx := context.Background()
	creds := s.sessions.All()
	cycleStart := time.Now()
	sessionsDone := 0
	totalSent := 0

	s.notifier.Notify(chatID, fmt.Sprintf("🔄 Starting Campaign Cycle (Next cycle in %ds)", cfg.CycleDelaySeconds))

	for _, cred := range creds {
		if !s.IsActive() {
			s.notifier.Notify(chatID, "Campaign cycle stopped by user request.")
			return
		}

		sess, err := s.deliverer.Connect(ctx, cred)
		if err != nil {
			s.log.Error().Err(err).Str("session", shortToken(cred)).Msg("session connect failed")
			s.notifier.Notify(chatID, fmt.Sprintf("⚠️ Error occurred while processing session %s. Skipping to the next session.", shortToken(cred)))
			continue
		}

		s.notifier.Notify(chatID, fmt.Sprintf("➡️ Initiating blast via session: %s", sess.Name()))

		targets, err := sess.ListTargets(ctx)
		if err != nil {
			sess.Close()
			s.log.Error().Err(err).Str("session", sess.Name()).Msg("target listing failed")
			s.notifier.Notify(chatID, fmt.Sprintf("⚠️ Error occurred while processing session %s. Skipping to the next session.", sess.Name()))
			continue
		}

		sessionSent := 0
		rateLimited := false

		for _, target := range targets {
			// Quota is checked before every send and is cycle-global:
			// exhaustion aborts the whole cycle, not just this session.
			q = s.quotas.GetOrCreate(userID)
			if s.quotas.Exhausted(q) {
				s.notifier.Notify(chatID, "🛑 Daily Limit Reached! The campaign is halting. You have sent the maximum allowed messages today.")
				s.deactivate()
				break
			}
			if !s.IsActive() {
				break
			}

			err := sess.Send(ctx, target, cfg.AdMessage)
			switch {
			case err == nil:
				s.notifier.Notify(chatID, fmt.Sprintf("   - ✅ Sent to: %s", target.Title))
				sessionSent++
				totalSent++
				s.quotas.RecordSend(userID)
				// The throttle that keeps one session under the
				// platform's flood threshold.
				s.pause(cfg.MessageDelaySeconds)
			case entities.IsRateLimit(err):
				s.log.Warn().Str("session", sess.Name()).Msg("rate limit hit, abandoning session for this cycle")
				s.notifier.Notify(chatID, fmt.Sprintf("   - ⚠️ Rate Limit Hit for session %s. Abandoning this session for the rest of the cycle.", sess.Name()))
				sess.Close()
				sessionsDone++
				rateLimited = true
			default:
				s.log.Warn().Err(err).Str("target", target.Title).Msg("send failed")
				s.notifier.Notify(chatID, fmt.Sprintf("   - ❌ FAILED to send to: %s. Reason: %v.", target.Title, err))
			}
			if rateLimited {
				break
			}
		}

		if rateLimited {
			continue
		}
		if !s.IsActive() {
			sess.Close()
			break
		}

		sess.Close()
		sessionsDone++
		s.notifier.Notify(chatID, fmt.Sprintf("✅ Session %s completed. Messages sent in this session: %d.", sess.Name(), sessionSent))
	}

	if !s.IsActive() {
		s.haltTimer()
		return
	}

	q = s.quotas.GetOrCreate(userID)
	remainingLine := ""
	if !q.IsBanned {
		remainingLine = fmt.Sprintf("\n• Remaining Today: %d", s.quotas.Remaining(q))
	}
	s.notifier.Notify(chatID, fmt.Sprintf(
		"🏁 Campaign Cycle Complete\n\n• Sessions Processed: %d out of %d\n• Total Messages Sent in Cycle: %d\n• Cycle Duration: %.2f seconds\n• Next Cycle Starts In: %ds%s",
		sessionsDone, len(creds), totalSent, time.Since(cycleStart).Seconds(), cfg.CycleDelaySeconds, remainingLine))
}

// Broadcast is the admin one-shot: a single immediate pass over every
// integrated session sending text to all reachable targets with a fixed
// short delay. Per-target failures are skipped silently; per-session
// failures skip the session. Returns sessions used and messages sent.
func (s *CampaignService) Broadcast(ctx context.Context, text string) (int, int) {
	creds := s.sessions.All()
	sessionsUsed := 0
	totalSent := 0

	for _, cred := range creds {
		sess, err := s.deliverer.Connect(ctx, cred)
		if err != nil {
			s.log.Error().Err(err).Str("session", shortToken(cred)).Msg("broadcast connect failed")
			continue
		}
		targets, err := sess.ListTargets(ctx)
		if err != nil {
			sess.Close()
			s.log.Error().Err(err).Str("session", sess.Name()).Msg("broadcast listing failed")
			continue
		}
		for _, target := range targets {
			if err := sess.Send(ctx, target, text); err == nil {
				totalSent++
				time.Sleep(s.broadcastDelay)
			}
		}
		sess.Close()
		sessionsUsed++
	}
	return sessionsUsed, totalSent
}

func (s *CampaignService) pause(seconds int) {
	time.Sleep(time.Duration(seconds) * time.Second)
}
