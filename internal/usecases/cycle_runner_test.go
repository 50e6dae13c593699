package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SoulxxMerchant/New/internal/entities"
	"github.com/SoulxxMerchant/New/internal/interfaces"
	"github.com/SoulxxMerchant/New/internal/repository"
)

type fakeNotifier struct {
	msgs []string
}

func (n *fakeNotifier) Notify(chatID int64, text string) {
	n.msgs = append(n.msgs, text)
}

func (n *fakeNotifier) contains(sub string) bool {
	return n.count(sub) > 0
}

func (n *fakeNotifier) count(sub string) int {
	total := 0
	for _, m := range n.msgs {
		if strings.Contains(m, sub) {
			total++
		}
	}
	return total
}

type fakeSession struct {
	name    string
	targets []interfaces.Target
	errs    map[string]error // send error keyed by target ID
	listErr error
	onSend  func()

	sent   []string
	closed bool
}

func (s *fakeSession) Name() string { return s.name }

func (s *fakeSession) ListTargets(ctx context.Context) ([]interfaces.Target, error) {
	return s.targets, s.listErr
}

func (s *fakeSession) Send(ctx context.Context, target interfaces.Target, text string) error {
	if err := s.errs[target.ID]; err != nil {
		return err
	}
	s.sent = append(s.sent, target.ID)
	if s.onSend != nil {
		s.onSend()
	}
	return nil
}

func (s *fakeSession) Close() { s.closed = true }

type fakeDeliverer struct {
	sessions map[string]*fakeSession
	errs     map[string]error
}

func (d *fakeDeliverer) Connect(ctx context.Context, credential string) (interfaces.DeliverySession, error) {
	if err := d.errs[credential]; err != nil {
		return nil, err
	}
	sess, ok := d.sessions[credential]
	if !ok {
		return nil, errors.New("unknown credential")
	}
	return sess, nil
}

const (
	testUser int64 = 100
	testChat int64 = 200
)

type campaignFixture struct {
	svc       *CampaignService
	notifier  *fakeNotifier
	sessions  *repository.SessionStore
	quotas    *QuotaService
	deliverer *fakeDeliverer
}

// newCampaignFixture wires a campaign service against fakes with zero send
// delay and a long cycle interval so no timer fires during the test.
func newCampaignFixture(t *testing.T, baseLimit int) *campaignFixture {
	t.Helper()

	dir := t.TempDir()
	sessions, err := repository.NewSessionStore(filepath.Join(dir, "sessions.txt"))
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	repo, err := repository.NewFileQuotaRepository(filepath.Join(dir, "user_data.json"))
	if err != nil {
		t.Fatalf("new quota repo: %v", err)
	}

	quotas := NewQuotaService(repo, baseLimit, baseLimit*10, zerolog.Nop())
	deliverer := &fakeDeliverer{sessions: map[string]*fakeSession{}, errs: map[string]error{}}
	notifier := &fakeNotifier{}

	cfg := entities.CampaignConfig{AdMessage: "hello", MessageDelaySeconds: 0, CycleDelaySeconds: 3600}
	svc := NewCampaignService(cfg, sessions, quotas, deliverer, notifier, zerolog.Nop())
	svc.kickDelay = time.Hour
	svc.broadcastDelay = 0
	t.Cleanup(func() { svc.cron.Stop() })

	return &campaignFixture{svc: svc, notifier: notifier, sessions: sessions, quotas: quotas, deliverer: deliverer}
}

func (f *campaignFixture) addSession(t *testing.T, cred string, sess *fakeSession) {
	t.Helper()
	if err := f.sessions.Add(cred); err != nil {
		t.Fatalf("add session: %v", err)
	}
	f.deliverer.sessions[cred] = sess
}

// activate puts the service in the running state without arming any timers.
func (f *campaignFixture) activate() {
	f.svc.mu.Lock()
	f.svc.active = true
	f.svc.controlUser = testUser
	f.svc.controlChat = testChat
	f.svc.mu.Unlock()
}

func targets(ids ...string) []interfaces.Target {
	out := make([]interfaces.Target, 0, len(ids))
	for _, id := range ids {
		out = append(out, interfaces.Target{ID: id, Title: "Group " + id})
	}
	return out
}

func TestRunCycle_DeliversThroughAllSessions(t *testing.T) {
	f := newCampaignFixture(t, 100)
	a := &fakeSession{name: "a", targets: targets("a1", "a2", "a3")}
	b := &fakeSession{name: "b", targets: targets("b1", "b2", "b3")}
	f.addSession(t, "cred-a", a)
	f.addSession(t, "cred-b", b)
	f.activate()

	f.svc.RunCycle()

	if len(a.sent) != 3 || len(b.sent) != 3 {
		t.Fatalf("expected 3 sends per session, got %d and %d", len(a.sent), len(b.sent))
	}
	if !a.closed || !b.closed {
		t.Fatalf("sessions not closed after cycle")
	}
	if q := f.quotas.GetOrCreate(testUser); q.MessagesToday != 6 {
		t.Fatalf("expected 6 recorded sends, got %d", q.MessagesToday)
	}
	if !f.notifier.contains("Sessions Processed: 2 out of 2") {
		t.Fatalf("missing cycle summary, got %v", f.notifier.msgs)
	}
	if !f.svc.IsActive() {
		t.Fatalf("campaign should stay active after a normal cycle")
	}
}

func TestRunCycle_HaltsOnQuotaExhaustion(t *testing.T) {
	f := newCampaignFixture(t, 5)
	for i := 0; i < 4; i++ {
		f.quotas.RecordSend(testUser)
	}
	sess := &fakeSession{name: "a", targets: targets("t1", "t2", "t3")}
	f.addSession(t, "cred-a", sess)
	f.activate()

	f.svc.RunCycle()

	if len(sess.sent) != 1 {
		t.Fatalf("expected exactly 1 send before exhaustion, got %d", len(sess.sent))
	}
	if q := f.quotas.GetOrCreate(testUser); q.MessagesToday != 5 {
		t.Fatalf("expected quota at limit, got %d", q.MessagesToday)
	}
	if !f.notifier.contains("Daily Limit Reached") {
		t.Fatalf("missing halt notification, got %v", f.notifier.msgs)
	}
	if f.svc.IsActive() {
		t.Fatalf("campaign should be idle after exhaustion")
	}
	if f.notifier.contains("Campaign Cycle Complete") {
		t.Fatalf("halted cycle must not report a summary")
	}
}

func TestRunCycle_RateLimitAbandonsSession(t *testing.T) {
	f := newCampaignFixture(t, 100)
	a := &fakeSession{
		name:    "a",
		targets: targets("t1", "t2", "t3"),
		errs:    map[string]error{"t2": &entities.RateLimitError{RetryAfter: time.Minute}},
	}
	b := &fakeSession{name: "b", targets: targets("u1", "u2")}
	f.addSession(t, "cred-a", a)
	f.addSession(t, "cred-b", b)
	f.activate()

	f.svc.RunCycle()

	if len(a.sent) != 1 {
		t.Fatalf("rate limited session should stop after first send, got %d", len(a.sent))
	}
	if len(b.sent) != 2 {
		t.Fatalf("next session should be unaffected, got %d", len(b.sent))
	}
	if !a.closed {
		t.Fatalf("rate limited session not closed")
	}
	if !f.notifier.contains("Rate Limit Hit") {
		t.Fatalf("missing rate limit notification, got %v", f.notifier.msgs)
	}
	if !f.notifier.contains("Sessions Processed: 2 out of 2") {
		t.Fatalf("both sessions should count as processed, got %v", f.notifier.msgs)
	}
	if !f.notifier.contains("Total Messages Sent in Cycle: 3") {
		t.Fatalf("expected 3 total sends, got %v", f.notifier.msgs)
	}
}

func TestRunCycle_StopRequestEndsCycle(t *testing.T) {
	f := newCampaignFixture(t, 100)
	sess := &fakeSession{name: "a", targets: targets("t1", "t2", "t3")}
	sess.onSend = func() {
		if err := f.svc.Stop(); err != nil {
			t.Errorf("stop: %v", err)
		}
	}
	f.addSession(t, "cred-a", sess)
	f.activate()

	f.svc.RunCycle()

	if len(sess.sent) != 1 {
		t.Fatalf("expected 1 send before the stop was observed, got %d", len(sess.sent))
	}
	if !sess.closed {
		t.Fatalf("session must be closed when a stop ends the cycle")
	}
	if f.svc.IsActive() {
		t.Fatalf("campaign should be idle after stop")
	}
	if f.notifier.contains("Campaign Cycle Complete") {
		t.Fatalf("stopped cycle must not report a summary")
	}
}

func TestRunCycle_SkipsFailedConnect(t *testing.T) {
	f := newCampaignFixture(t, 100)
	if err := f.sessions.Add("cred-dead"); err != nil {
		t.Fatalf("add session: %v", err)
	}
	f.deliverer.errs["cred-dead"] = errors.New("connection refused")
	b := &fakeSession{name: "b", targets: targets("u1", "u2")}
	f.addSession(t, "cred-b", b)
	f.activate()

	f.svc.RunCycle()

	if len(b.sent) != 2 {
		t.Fatalf("healthy session should still run, got %d sends", len(b.sent))
	}
	if !f.notifier.contains("Skipping to the next session") {
		t.Fatalf("missing skip notification, got %v", f.notifier.msgs)
	}
	if !f.notifier.contains("Sessions Processed: 1 out of 2") {
		t.Fatalf("failed session must not count as processed, got %v", f.notifier.msgs)
	}
}

func TestRunCycle_HaltsWhenControlUserBanned(t *testing.T) {
	f := newCampaignFixture(t, 100)
	sess := &fakeSession{name: "a", targets: targets("t1")}
	f.addSession(t, "cred-a", sess)
	f.quotas.SetBanned(testUser, true)
	f.activate()

	f.svc.RunCycle()

	if len(sess.sent) != 0 {
		t.Fatalf("banned user must not send, got %d", len(sess.sent))
	}
	if !f.notifier.contains("Campaign Halted") || !f.notifier.contains("banned") {
		t.Fatalf("missing ban notification, got %v", f.notifier.msgs)
	}
	if f.svc.IsActive() {
		t.Fatalf("campaign should be idle after ban halt")
	}
}

func TestRunCycle_IgnoresStaleFiring(t *testing.T) {
	f := newCampaignFixture(t, 100)
	sess := &fakeSession{name: "a", targets: targets("t1")}
	f.addSession(t, "cred-a", sess)

	// Service was never activated; a leftover timer firing must do nothing.
	f.svc.RunCycle()

	if len(sess.sent) != 0 {
		t.Fatalf("idle service must not send, got %d sends", len(sess.sent))
	}
	if len(f.notifier.msgs) != 0 {
		t.Fatalf("idle service must not notify, got %v", f.notifier.msgs)
	}
}

func TestRunCycle_DropsOverlappingFiring(t *testing.T) {
	f := newCampaignFixture(t, 100)
	entered := make(chan struct{})
	release := make(chan struct{})
	sess := &fakeSession{name: "a", targets: targets("t1")}
	sess.onSend = func() {
		close(entered)
		<-release
	}
	f.addSession(t, "cred-a", sess)
	f.activate()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.svc.RunCycle()
	}()
	<-entered

	// Fires while the first cycle is blocked mid-send; must be dropped.
	f.svc.RunCycle()

	close(release)
	wg.Wait()

	if len(sess.sent) != 1 {
		t.Fatalf("overlapping firing must not send, got %d sends", len(sess.sent))
	}
	if got := f.notifier.count("Starting Campaign Cycle"); got != 1 {
		t.Fatalf("expected exactly 1 cycle start notification, got %d", got)
	}
}

func TestBroadcast_SingleImmediatePass(t *testing.T) {
	f := newCampaignFixture(t, 100)
	a := &fakeSession{name: "a", targets: targets("t1", "t2")}
	b := &fakeSession{name: "b", targets: targets("u1", "u2")}
	f.addSession(t, "cred-a", a)
	f.addSession(t, "cred-b", b)

	used, sent := f.svc.Broadcast(context.Background(), "promo")

	if used != 2 || sent != 4 {
		t.Fatalf("expected 2 sessions and 4 sends, got %d and %d", used, sent)
	}
	if !a.closed || !b.closed {
		t.Fatalf("broadcast sessions not closed")
	}
	// Broadcast bypasses campaign state and quota accounting.
	if q := f.quotas.GetOrCreate(testUser); q.MessagesToday != 0 {
		t.Fatalf("broadcast must not touch quota, got %d", q.MessagesToday)
	}
	if f.svc.IsActive() {
		t.Fatalf("broadcast must not activate the campaign")
	}
}
