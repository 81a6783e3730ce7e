package syncer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/cli/api"
	"vigil/cli/push"
)

type fakeFetcher struct {
	mu            sync.Mutex
	services      []api.Service
	alerts        []api.Alert
	stats         api.Stats
	servicesErr   error
	servicesCalls int
	alertsCalls   int
	statsCalls    int
}

func (f *fakeFetcher) ListServices() ([]api.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.servicesCalls++
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return append([]api.Service(nil), f.services...), nil
}

func (f *fakeFetcher) ListAlerts() ([]api.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertsCalls++
	return append([]api.Alert(nil), f.alerts...), nil
}

func (f *fakeFetcher) GetStats() (*api.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	st := f.stats
	return &st, nil
}

func (f *fakeFetcher) calls() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.servicesCalls, f.alertsCalls, f.statsCalls
}

// recordingSink keeps one signal channel per collection so that waiting
// for one collection never consumes another's apply.
type recordingSink struct {
	mu       sync.Mutex
	services [][]api.Service
	alerts   [][]api.Alert
	stats    []*api.Stats
	signals  [collectionCount]chan struct{}
}

func newRecordingSink() *recordingSink {
	s := &recordingSink{}
	for i := range s.signals {
		s.signals[i] = make(chan struct{}, 32)
	}
	return s
}

func (s *recordingSink) ApplyServices(v []api.Service) {
	s.mu.Lock()
	s.services = append(s.services, v)
	s.mu.Unlock()
	s.signals[Services] <- struct{}{}
}

func (s *recordingSink) ApplyAlerts(v []api.Alert) {
	s.mu.Lock()
	s.alerts = append(s.alerts, v)
	s.mu.Unlock()
	s.signals[Alerts] <- struct{}{}
}

func (s *recordingSink) ApplyStats(v *api.Stats) {
	s.mu.Lock()
	s.stats = append(s.stats, v)
	s.mu.Unlock()
	s.signals[Stats] <- struct{}{}
}

func (s *recordingSink) lastServices() []api.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.services) == 0 {
		return nil
	}
	return s.services[len(s.services)-1]
}

func (s *recordingSink) wait(t *testing.T, want Collection) {
	t.Helper()
	select {
	case <-s.signals[want]:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s apply", want)
	}
}

func (s *recordingSink) pending() int {
	n := 0
	for i := range s.signals {
		n += len(s.signals[i])
	}
	return n
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	signal   chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{signal: make(chan string, 8)}
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	n.mu.Unlock()
	n.signal <- msg
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func TestStartupFetchesAllCollections(t *testing.T) {
	fetcher := &fakeFetcher{services: []api.Service{{ID: 1, Name: "api"}}}
	sink := newRecordingSink()
	c := New(fetcher, sink, nil)

	c.Start()
	defer c.Stop()

	sink.wait(t, Services)
	sink.wait(t, Alerts)
	sink.wait(t, Stats)

	sc, ac, stc := fetcher.calls()
	assert.Equal(t, 1, sc)
	assert.Equal(t, 1, ac)
	assert.Equal(t, 1, stc)
}

func TestEventRouting(t *testing.T) {
	cases := []struct {
		eventType string
		want      Collection
	}{
		{"service_update", Services},
		{"alert_update", Alerts},
		{"stats_update", Stats},
	}

	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			sink := newRecordingSink()
			c := New(fetcher, sink, nil)

			c.HandleEvent(push.Event{Type: tc.eventType})
			sink.wait(t, tc.want)

			sc, ac, stc := fetcher.calls()
			total := sc + ac + stc
			assert.Equal(t, 1, total, "exactly one collection must be fetched")
			switch tc.want {
			case Services:
				assert.Equal(t, 1, sc)
			case Alerts:
				assert.Equal(t, 1, ac)
			case Stats:
				assert.Equal(t, 1, stc)
			}
		})
	}
}

func TestUnrecognizedEventTriggersNothing(t *testing.T) {
	fetcher := &fakeFetcher{}
	sink := newRecordingSink()
	c := New(fetcher, sink, nil)

	c.HandleEvent(push.Event{Type: "deployment_update"})
	c.HandleEvent(push.Event{Type: "welcome", Message: "hi"})

	time.Sleep(50 * time.Millisecond)
	sc, ac, stc := fetcher.calls()
	assert.Zero(t, sc+ac+stc)
}

func TestFailedFetchDoesNotBlockOtherCollections(t *testing.T) {
	fetcher := &fakeFetcher{servicesErr: errors.New("boom")}
	sink := newRecordingSink()
	notifier := newRecordingNotifier()
	c := New(fetcher, sink, notifier)

	c.RefreshAll(ReasonStartup)

	sink.wait(t, Alerts)
	sink.wait(t, Stats)
	<-notifier.signal

	assert.Empty(t, sink.services, "failed services fetch must not reach the sink")
	assert.Equal(t, 1, notifier.count())
}

func TestFailureNotifiedOncePerStreak(t *testing.T) {
	fetcher := &fakeFetcher{servicesErr: errors.New("boom")}
	sink := newRecordingSink()
	notifier := newRecordingNotifier()
	c := New(fetcher, sink, notifier)

	c.Refresh(ReasonPeriodic, Services)
	<-notifier.signal
	c.Refresh(ReasonPeriodic, Services)
	c.Refresh(ReasonPeriodic, Services)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, notifier.count(), "repeat failures stay in the log")

	// Recovery resets the streak; the next failure notifies again.
	fetcher.mu.Lock()
	fetcher.servicesErr = nil
	fetcher.mu.Unlock()
	c.Refresh(ReasonPeriodic, Services)
	sink.wait(t, Services)

	fetcher.mu.Lock()
	fetcher.servicesErr = errors.New("boom again")
	fetcher.mu.Unlock()
	c.Refresh(ReasonPeriodic, Services)
	<-notifier.signal
	assert.Equal(t, 2, notifier.count())
}

func TestStaleCompletionIsDiscarded(t *testing.T) {
	fetcher := &fakeFetcher{services: []api.Service{{ID: 1, Name: "fresh"}}}
	sink := newRecordingSink()
	c := New(fetcher, sink, nil)

	// Two overlapping fetches of the same collection: the later one
	// (seq 2) completes first, then the earlier one (seq 1) arrives
	// with outdated data and must be dropped.
	c.mu.Lock()
	c.nextSeq[Services] = 2
	c.mu.Unlock()

	c.fetch(ReasonPush, Services, 2)
	sink.wait(t, Services)

	fetcher.mu.Lock()
	fetcher.services = []api.Service{{ID: 1, Name: "stale"}}
	fetcher.mu.Unlock()
	c.fetch(ReasonPush, Services, 1)

	time.Sleep(50 * time.Millisecond)
	sink.mu.Lock()
	applied := len(sink.services)
	sink.mu.Unlock()
	require.Equal(t, 1, applied)
	assert.Equal(t, "fresh", sink.lastServices()[0].Name)
}

func TestMutationReconciliation(t *testing.T) {
	fetcher := &fakeFetcher{services: []api.Service{{ID: 1, Name: "api"}, {ID: 2, Name: "doomed"}}}
	sink := newRecordingSink()
	c := New(fetcher, sink, nil)

	c.Refresh(ReasonStartup, Services)
	sink.wait(t, Services)
	require.Len(t, sink.lastServices(), 2)

	// The delete mutation succeeded server-side; the client never edits
	// its copy, it re-fetches the authoritative collection.
	fetcher.mu.Lock()
	fetcher.services = []api.Service{{ID: 1, Name: "api"}}
	fetcher.mu.Unlock()

	c.Refresh(ReasonMutation, Services)
	sink.wait(t, Services)

	last := sink.lastServices()
	require.Len(t, last, 1)
	assert.Equal(t, 1, last[0].ID)
}

func TestPeriodicBackstop(t *testing.T) {
	fetcher := &fakeFetcher{}
	sink := newRecordingSink()
	c := New(fetcher, sink, nil)
	c.period = 30 * time.Millisecond

	c.Start()

	// Startup round plus at least one timer round.
	for range [2]int{} {
		sink.wait(t, Services)
		sink.wait(t, Alerts)
		sink.wait(t, Stats)
	}
	c.Stop()

	time.Sleep(60 * time.Millisecond)
	drained := sink.pending()
	time.Sleep(120 * time.Millisecond)
	assert.LessOrEqual(t, sink.pending(), drained+3, "ticker must stop after Stop")
}
