package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/clip"
	"github.com/nerrad567/huelink/internal/infrastructure/config"
	"github.com/nerrad567/huelink/internal/infrastructure/logging"
	"github.com/nerrad567/huelink/internal/infrastructure/mqtt"
)

// DefaultInterval is the poll interval when none is configured.
const DefaultInterval = 60 * time.Second

// Dispatcher fetches resource collections from a bridge.
// Satisfied by *clip.Router.
type Dispatcher interface {
	Fetch(ctx context.Context, target clip.Target, rtype clip.ResourceType, path string) (*clip.Response, error)
}

// BridgeSource lists the saved bridges to monitor.
// Satisfied by bridge.Repository.
type BridgeSource interface {
	List(ctx context.Context) ([]bridge.Bridge, error)
}

// StatePublisher mirrors resource state and events onto the message
// bus. Satisfied by *mqtt.Client.
type StatePublisher interface {
	PublishJSON(topic string, v any, retained bool) error
	Topics() mqtt.Topics
	IsConnected() bool
}

// Broadcaster pushes events to live subscribers.
// Satisfied by the API server's WebSocket hub.
type Broadcaster interface {
	Broadcast(v any)
}

// Status is a point-in-time view of the monitor for health reporting.
type Status struct {
	Running   bool      `json:"running"`
	LastPoll  time.Time `json:"last_poll"`
	Bridges   int       `json:"bridges"`
	Resources int       `json:"resources"`
}

// Monitor polls saved bridges for resource state, detects changes
// against an in-memory cache, and fans the changes out to MQTT and
// WebSocket subscribers.
//
// Polling is local-only: targets carry no bearer token, so a LAN
// outage surfaces as a poll failure instead of silently turning the
// monitor into a cloud-relay poll storm.
//
// Thread Safety: Start, Stop, and Status are safe for concurrent use.
// Polling runs on a single internal goroutine.
type Monitor struct {
	cfg         config.MonitorConfig
	dispatcher  Dispatcher
	bridges     BridgeSource
	publisher   StatePublisher
	broadcaster Broadcaster
	logger      *logging.Logger
	interval    time.Duration

	// states is touched only by the poll goroutine.
	states map[string]*bridgeState

	// status is the externally visible snapshot.
	status   Status
	statusMu sync.RWMutex

	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctxCancel context.CancelFunc
}

// Options configures a Monitor.
type Options struct {
	// Config holds interval settings. Required.
	Config config.MonitorConfig

	// Dispatcher routes resource fetches. Required.
	Dispatcher Dispatcher

	// Bridges supplies the bridges to poll. Required.
	Bridges BridgeSource

	// Publisher mirrors state onto MQTT. May be nil when the bus is
	// disabled.
	Publisher StatePublisher

	// Broadcaster pushes events to WebSocket subscribers. May be nil.
	Broadcaster Broadcaster

	// Logger for poll diagnostics. May be nil.
	Logger *logging.Logger
}

// New creates a Monitor from options.
//
// Returns:
//   - *Monitor: Configured monitor, not yet started
//   - error: If a required dependency is missing
func New(opts Options) (*Monitor, error) {
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if opts.Bridges == nil {
		return nil, fmt.Errorf("bridge source is required")
	}

	interval := time.Duration(opts.Config.Interval) * time.Second
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Monitor{
		cfg:         opts.Config,
		dispatcher:  opts.Dispatcher,
		bridges:     opts.Bridges,
		publisher:   opts.Publisher,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger,
		interval:    interval,
		states:      make(map[string]*bridgeState),
		done:        make(chan struct{}),
	}, nil
}

// Start launches the poll loop. The first poll runs immediately so
// retained state topics are populated without waiting a full interval.
func (m *Monitor) Start(ctx context.Context) {
	var runCtx context.Context
	runCtx, m.ctxCancel = context.WithCancel(ctx)

	m.statusMu.Lock()
	m.status.Running = true
	m.statusMu.Unlock()

	m.wg.Add(1)
	go m.run(runCtx)

	m.logInfo("monitor started", "interval", m.interval.String())
}

// Stop halts polling and waits for the in-flight poll to finish.
// Safe to call multiple times.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		if m.ctxCancel != nil {
			m.ctxCancel()
		}
		m.wg.Wait()

		m.statusMu.Lock()
		m.status.Running = false
		m.statusMu.Unlock()

		m.logInfo("monitor stopped")
	})
}

// Status returns the current monitor snapshot.
func (m *Monitor) Status() Status {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status
}

// run is the poll loop.
func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	m.pollAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollAll(ctx)
		}
	}
}

// pollAll polls every saved bridge once.
func (m *Monitor) pollAll(ctx context.Context) {
	bridges, err := m.bridges.List(ctx)
	if err != nil {
		m.logWarn("listing bridges for poll", "error", err)
		return
	}

	resources := 0
	for i := range bridges {
		m.pollBridge(ctx, &bridges[i])
		if state := m.states[bridges[i].ID]; state != nil {
			resources += len(state.resources)
		}
	}

	m.statusMu.Lock()
	m.status.LastPoll = time.Now().UTC()
	m.status.Bridges = len(bridges)
	m.status.Resources = resources
	m.statusMu.Unlock()
}

// pollBridge fetches one bridge's full resource list and fans out any
// changes. Poll failures leave the cached state untouched, so a
// transient outage does not replay as a delete storm.
func (m *Monitor) pollBridge(ctx context.Context, b *bridge.Bridge) {
	target := clip.Target{
		IPAddress:      b.IPAddress,
		ApplicationKey: b.ApplicationKey,
	}

	resp, err := m.dispatcher.Fetch(ctx, target, "", "")
	if err != nil {
		m.logWarn("polling bridge", "bridge", b.ID, "error", err)
		return
	}
	if desc := resp.FirstError(); desc != "" {
		m.logDebug("bridge reported errors during poll", "bridge", b.ID, "description", desc)
	}

	var items []json.RawMessage
	if err := resp.DecodeData(&items); err != nil {
		m.logWarn("decoding poll response", "bridge", b.ID, "error", err)
		return
	}

	state := m.states[b.ID]
	if state == nil {
		state = &bridgeState{}
		m.states[b.ID] = state
	}

	changes := state.diff(items)
	topicBridgeID := b.BridgeID
	if topicBridgeID == "" {
		topicBridgeID = b.ID
	}

	for _, ch := range changes {
		m.publishState(topicBridgeID, ch)

		// The seeding poll populates retained topics silently; only
		// later polls represent actual changes worth announcing.
		if state.seeded {
			m.emitEvent(topicBridgeID, ch)
		}
	}

	if !state.seeded {
		state.seeded = true
		m.logDebug("bridge state seeded", "bridge", b.ID, "resources", len(state.resources))
	}
}

// publishState mirrors one changed resource onto its retained state
// topic. Deletes publish an empty retained payload so the topic clears.
func (m *Monitor) publishState(bridgeID string, ch change) {
	if m.publisher == nil || !m.publisher.IsConnected() {
		return
	}

	topic := m.publisher.Topics().ResourceState(bridgeID, ch.resourceType, ch.resourceID)

	var err error
	if ch.eventType == EventDelete {
		err = m.publisher.PublishJSON(topic, nil, true)
	} else {
		err = m.publisher.PublishJSON(topic, ch.raw, true)
	}
	if err != nil {
		m.logWarn("publishing state", "topic", topic, "error", err)
	}
}

// emitEvent sends one change to the event topic and WebSocket
// subscribers.
func (m *Monitor) emitEvent(bridgeID string, ch change) {
	event := newEvent(ch.eventType, bridgeID, ch.resourceType, ch.resourceID, ch.raw)

	if m.publisher != nil && m.publisher.IsConnected() {
		topic := m.publisher.Topics().Events(bridgeID)
		if err := m.publisher.PublishJSON(topic, event, false); err != nil {
			m.logWarn("publishing event", "topic", topic, "error", err)
		}
	}

	if m.broadcaster != nil {
		m.broadcaster.Broadcast(event)
	}
}

// logInfo logs at info level if a logger is configured.
func (m *Monitor) logInfo(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

// logWarn logs at warn level if a logger is configured.
func (m *Monitor) logWarn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}

// logDebug logs at debug level if a logger is configured.
func (m *Monitor) logDebug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
