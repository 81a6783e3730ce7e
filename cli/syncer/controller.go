// Package syncer owns the refresh policy: every reason to re-fetch —
// startup, the periodic timer, a push hint, a completed mutation — is
// funneled through one dispatch point, so what re-fetches what lives in
// one place.
package syncer

import (
	"log"
	"sync"
	"time"

	"vigil/cli/api"
	"vigil/cli/push"
)

type Collection int

const (
	Services Collection = iota
	Alerts
	Stats
	collectionCount
)

func (c Collection) String() string {
	switch c {
	case Services:
		return "services"
	case Alerts:
		return "alerts"
	case Stats:
		return "stats"
	}
	return "unknown"
}

// Reason tags a refresh trigger, for logs only — the fetch path is
// identical for all of them.
type Reason string

const (
	ReasonStartup  Reason = "startup"
	ReasonPeriodic Reason = "periodic"
	ReasonPush     Reason = "push"
	ReasonMutation Reason = "mutation"
)

// RefreshPeriod is the polling backstop: a full re-fetch of all three
// collections on a fixed timer, regardless of push activity.
const RefreshPeriod = 30 * time.Second

// Fetcher is the read side of the API client the controller drives.
type Fetcher interface {
	ListServices() ([]api.Service, error)
	ListAlerts() ([]api.Alert, error)
	GetStats() (*api.Stats, error)
}

// Sink receives fetch results. Each collection is applied independently;
// the controller guarantees per-collection ordering (a stale completion
// is never applied after a fresher one).
type Sink interface {
	ApplyServices([]api.Service)
	ApplyAlerts([]api.Alert)
	ApplyStats(*api.Stats)
}

// Notifier surfaces a fetch failure once as a transient message. The
// controller calls it once per failure streak per collection.
type Notifier interface {
	Notify(message string)
}

type Controller struct {
	fetcher  Fetcher
	sink     Sink
	notifier Notifier
	period   time.Duration

	mu      sync.Mutex
	nextSeq [collectionCount]uint64
	applied [collectionCount]uint64
	failing [collectionCount]bool

	// applyMu serializes the staleness check with the sink call, so a
	// stale completion can never slip in after a fresher one applied.
	applyMu sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

func New(fetcher Fetcher, sink Sink, notifier Notifier) *Controller {
	return &Controller{
		fetcher:  fetcher,
		sink:     sink,
		notifier: notifier,
		period:   RefreshPeriod,
		stop:     make(chan struct{}),
	}
}

// Start fires the initial full fetch and launches the periodic backstop.
func (c *Controller) Start() {
	c.RefreshAll(ReasonStartup)
	go c.loop()
}

func (c *Controller) loop() {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.RefreshAll(ReasonPeriodic)
		}
	}
}

// Stop cancels the periodic timer. In-flight fetches are not cancelled;
// their results still pass through the sink, whose owner is expected to
// ignore them after teardown.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// HandleEvent maps a push hint to the collection it staled. Unrecognized
// event types are ignored without error.
func (c *Controller) HandleEvent(evt push.Event) {
	switch evt.Type {
	case "welcome":
		log.Printf("syncer: welcome: %s", evt.Message)
	case "service_update":
		c.Refresh(ReasonPush, Services)
	case "alert_update":
		c.Refresh(ReasonPush, Alerts)
	case "stats_update":
		c.Refresh(ReasonPush, Stats)
	}
}

// RefreshAll re-fetches every collection concurrently.
func (c *Controller) RefreshAll(reason Reason) {
	c.Refresh(reason, Services, Alerts, Stats)
}

// Refresh is the single dispatch point. Each collection gets its own
// fetch goroutine; one failing never blocks the others. Overlapping
// refreshes of the same collection are allowed — each fetch carries a
// monotonic sequence number and a completion older than the newest
// applied one is discarded instead of rendered.
func (c *Controller) Refresh(reason Reason, collections ...Collection) {
	for _, col := range collections {
		c.mu.Lock()
		c.nextSeq[col]++
		seq := c.nextSeq[col]
		c.mu.Unlock()

		go c.fetch(reason, col, seq)
	}
}

func (c *Controller) fetch(reason Reason, col Collection, seq uint64) {
	switch col {
	case Services:
		services, err := c.fetcher.ListServices()
		if err != nil {
			c.fail(reason, col, err)
			return
		}
		c.apply(col, seq, func() { c.sink.ApplyServices(services) })
	case Alerts:
		alerts, err := c.fetcher.ListAlerts()
		if err != nil {
			c.fail(reason, col, err)
			return
		}
		c.apply(col, seq, func() { c.sink.ApplyAlerts(alerts) })
	case Stats:
		stats, err := c.fetcher.GetStats()
		if err != nil {
			c.fail(reason, col, err)
			return
		}
		c.apply(col, seq, func() { c.sink.ApplyStats(stats) })
	}
}

// apply records a successful completion and delivers it to the sink,
// unless a fresher fetch already applied, in which case the result is
// dropped.
func (c *Controller) apply(col Collection, seq uint64, deliver func()) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	if seq < c.applied[col] {
		stale := c.applied[col]
		c.mu.Unlock()
		log.Printf("syncer: dropping stale %s fetch (seq %d < %d)", col, seq, stale)
		return
	}
	c.applied[col] = seq
	c.failing[col] = false
	c.mu.Unlock()

	deliver()
}

// fail logs every failure but surfaces it only once per streak: the
// first failed fetch of a collection notifies, the following ones stay
// in the log until a fetch succeeds again. Nothing is fatal — the next
// periodic or push trigger retries naturally.
func (c *Controller) fail(reason Reason, col Collection, err error) {
	log.Printf("syncer: %s refresh (%s) failed: %v", col, reason, err)
	c.mu.Lock()
	first := !c.failing[col]
	c.failing[col] = true
	c.mu.Unlock()
	if first && c.notifier != nil {
		c.notifier.Notify(err.Error())
	}
}
