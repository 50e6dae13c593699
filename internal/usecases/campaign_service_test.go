package usecases

import (
	"errors"
	"testing"
)

func TestStart_RejectsWhenNoSessions(t *testing.T) {
	f := newCampaignFixture(t, 100)

	if err := f.svc.Start(testUser, testChat); !errors.Is(err, ErrNoSessions) {
		t.Fatalf("expected ErrNoSessions, got %v", err)
	}
	if f.svc.IsActive() {
		t.Fatalf("rejected start must not activate")
	}
}

func TestStart_RejectsWhenAlreadyActive(t *testing.T) {
	f := newCampaignFixture(t, 100)
	f.addSession(t, "cred-a", &fakeSession{name: "a"})

	if err := f.svc.Start(testUser, testChat); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := f.svc.Start(testUser, testChat); !errors.Is(err, ErrCampaignActive) {
		t.Fatalf("expected ErrCampaignActive, got %v", err)
	}
	if err := f.svc.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStart_RejectsBannedUser(t *testing.T) {
	f := newCampaignFixture(t, 100)
	f.addSession(t, "cred-a", &fakeSession{name: "a"})
	f.quotas.SetBanned(testUser, true)

	if err := f.svc.Start(testUser, testChat); !errors.Is(err, ErrUserBanned) {
		t.Fatalf("expected ErrUserBanned, got %v", err)
	}
	if f.svc.IsActive() {
		t.Fatalf("rejected start must not activate")
	}
}

func TestStart_RejectsExhaustedQuota(t *testing.T) {
	f := newCampaignFixture(t, 1)
	f.addSession(t, "cred-a", &fakeSession{name: "a"})
	f.quotas.RecordSend(testUser)

	if err := f.svc.Start(testUser, testChat); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
}

func TestStop_WhenIdle(t *testing.T) {
	f := newCampaignFixture(t, 100)

	if err := f.svc.Stop(); !errors.Is(err, ErrCampaignInactive) {
		t.Fatalf("expected ErrCampaignInactive, got %v", err)
	}
}

func TestStart_RegistersSingleTimer(t *testing.T) {
	f := newCampaignFixture(t, 100)
	f.addSession(t, "cred-a", &fakeSession{name: "a"})

	if err := f.svc.Start(testUser, testChat); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := f.svc.TimerCount(); got != 1 {
		t.Fatalf("expected 1 recurring timer, got %d", got)
	}

	if err := f.svc.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := f.svc.TimerCount(); got != 0 {
		t.Fatalf("expected 0 timers after stop, got %d", got)
	}
}

func TestSetMessageDelay_Clamps(t *testing.T) {
	f := newCampaignFixture(t, 100)

	if got, clamped := f.svc.SetMessageDelay(2); got != 5 || !clamped {
		t.Fatalf("expected clamp to 5, got %d clamped=%v", got, clamped)
	}
	if got, clamped := f.svc.SetMessageDelay(30); got != 30 || clamped {
		t.Fatalf("expected 30 unclamped, got %d clamped=%v", got, clamped)
	}
	if s := f.svc.Status(); s.Config.MessageDelaySeconds != 30 {
		t.Fatalf("status not updated: %d", s.Config.MessageDelaySeconds)
	}
}

func TestSetCycleDelay_ClampsWhenIdle(t *testing.T) {
	f := newCampaignFixture(t, 100)

	got, clamped, rescheduled := f.svc.SetCycleDelay(10)
	if got != 60 || !clamped {
		t.Fatalf("expected clamp to 60, got %d clamped=%v", got, clamped)
	}
	if rescheduled {
		t.Fatalf("idle campaign must not reschedule")
	}
	if f.svc.TimerCount() != 0 {
		t.Fatalf("idle campaign must not register a timer")
	}
}

func TestSetCycleDelay_ReschedulesWhileActive(t *testing.T) {
	f := newCampaignFixture(t, 100)
	f.addSession(t, "cred-a", &fakeSession{name: "a"})

	if err := f.svc.Start(testUser, testChat); err != nil {
		t.Fatalf("start: %v", err)
	}
	startKick := f.svc.kick

	got, clamped, rescheduled := f.svc.SetCycleDelay(120)
	if got != 120 || clamped {
		t.Fatalf("expected 120 unclamped, got %d clamped=%v", got, clamped)
	}
	if !rescheduled {
		t.Fatalf("active campaign should reschedule immediately")
	}
	if f.svc.TimerCount() != 1 {
		t.Fatalf("reschedule must leave exactly 1 timer, got %d", f.svc.TimerCount())
	}
	// A live reschedule fires a near-immediate cycle, like Start does.
	if f.svc.kick == nil || f.svc.kick == startKick {
		t.Fatalf("reschedule must arm a fresh first-fire timer")
	}

	if err := f.svc.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestSetAdMessage(t *testing.T) {
	f := newCampaignFixture(t, 100)

	f.svc.SetAdMessage("new promo text")
	if s := f.svc.Status(); s.Config.AdMessage != "new promo text" {
		t.Fatalf("ad message not updated: %q", s.Config.AdMessage)
	}
}
