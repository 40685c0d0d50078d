package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/constants"
	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/benmeehan/iot-dashboard/internal/utils"
	"github.com/rs/zerolog"
)

// Broadcaster pushes accepted samples to live dashboard clients.
type Broadcaster interface {
	Broadcast(payload []byte)
}

type eventKind int

const (
	eventRawPayload eventKind = iota
	eventPhoneSample
	eventLinkChange
)

// event is one unit of work for the tracker loop. Producers never touch
// tracker state directly; everything funnels through the queue.
type event struct {
	kind   eventKind
	raw    []byte
	sample models.TelemetrySample
	link   models.LinkState
	device string
	detail string
}

// Tracker owns the arbitration state: the latest displayed sample, the
// bounded history, link status and counters. A single goroutine consumes
// the event queue and runs decode and arbitration to completion per event,
// so admission decisions are strictly ordered. Read accessors are guarded
// for the HTTP handlers.
type Tracker struct {
	// Configuration fields
	staleWindow time.Duration

	// Dependencies
	broadcaster Broadcaster
	logger      zerolog.Logger

	// Event queue consumed by the run loop
	events chan event

	// Guarded state
	mu                sync.RWMutex
	latest            *models.TelemetrySample
	history           *utils.Ring[models.TelemetrySample]
	notices           *utils.Ring[models.Notice]
	linkState         models.LinkState
	connectedDevice   string
	linkActive        bool
	phoneTracking     bool
	continuingToTrack bool
	lastDeviceAt      time.Time
	samplesAccepted   uint64
	phoneDropped      uint64
	decodeErrors      uint64
	exports           uint64

	// Internal state management
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	staleTimer *time.Timer
	running    bool
}

// NewTracker creates a Tracker with the given history capacity and stale
// window, falling back to the package defaults for non-positive values.
// The broadcaster may be nil when no live push is wanted.
func NewTracker(historyCapacity int, staleWindow time.Duration, broadcaster Broadcaster, logger zerolog.Logger) *Tracker {
	if historyCapacity <= 0 {
		historyCapacity = constants.DefaultHistoryCapacity
	}
	if staleWindow <= 0 {
		staleWindow = constants.DefaultStaleWindowSeconds * time.Second
	}
	return &Tracker{
		staleWindow: staleWindow,
		broadcaster: broadcaster,
		logger:      logger,
		events:      make(chan event, constants.DefaultEventQueueSize),
		history:     utils.NewRing[models.TelemetrySample](historyCapacity),
		notices:     utils.NewRing[models.Notice](constants.DefaultNoticeCapacity),
		linkState:   models.LinkIdle,
	}
}

// Start launches the event loop.
func (t *Tracker) Start() error {
	if t.running {
		t.logger.Warn().Msg("Tracker is already running")
		return errors.New("tracker service is already running")
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.staleTimer = time.NewTimer(t.staleWindow)
	if !t.staleTimer.Stop() {
		<-t.staleTimer.C
	}
	t.running = true

	t.wg.Add(1)
	go t.run()

	t.logger.Info().
		Int("history_capacity", t.history.Cap()).
		Dur("stale_window", t.staleWindow).
		Msg("Tracker started")
	return nil
}

// Stop terminates the event loop and waits for it to drain.
func (t *Tracker) Stop() error {
	if !t.running {
		t.logger.Warn().Msg("Tracker is not running")
		return errors.New("tracker service is not running")
	}

	t.cancel()
	t.wg.Wait()
	t.staleTimer.Stop()
	t.running = false
	t.logger.Info().Msg("Tracker stopped")
	return nil
}

// IngestRaw queues one notification payload from the device link. The
// payload is copied because the MQTT client may reuse its buffer.
func (t *Tracker) IngestRaw(payload []byte) {
	raw := make([]byte, len(payload))
	copy(raw, payload)
	t.enqueue(event{kind: eventRawPayload, raw: raw})
}

// IngestPhone queues a sample built from the host's location provider.
func (t *Tracker) IngestPhone(sample models.TelemetrySample) {
	sample.Source = models.SourcePhone
	t.enqueue(event{kind: eventPhoneSample, sample: sample})
}

// UpdateLink queues a link state transition. Detail is included in the
// user-facing notice for disconnects.
func (t *Tracker) UpdateLink(state models.LinkState, deviceID, detail string) {
	t.enqueue(event{kind: eventLinkChange, link: state, device: deviceID, detail: detail})
}

// enqueue never blocks a producer; when the queue is saturated the event
// is dropped in favor of newer data.
func (t *Tracker) enqueue(ev event) {
	select {
	case t.events <- ev:
	default:
		t.logger.Warn().Int("kind", int(ev.kind)).Msg("Event queue full, dropping event")
	}
}

func (t *Tracker) run() {
	defer t.wg.Done()

	for {
		select {
		case ev := <-t.events:
			t.handleEvent(ev)
		case <-t.staleTimer.C:
			t.handleStale()
		case <-t.ctx.Done():
			t.logger.Info().Msg("Tracker event loop stopping")
			return
		}
	}
}

func (t *Tracker) handleEvent(ev event) {
	switch ev.kind {
	case eventRawPayload:
		sample, err := Decode(ev.raw, DeviceDefaults)
		if err != nil {
			t.mu.Lock()
			t.decodeErrors++
			t.mu.Unlock()
			t.logger.Error().Err(err).Msg("Failed to decode telemetry payload")
			return
		}
		sample.ReceivedAt = time.Now()
		t.admit(sample)
	case eventPhoneSample:
		ev.sample.ReceivedAt = time.Now()
		t.admit(ev.sample)
	case eventLinkChange:
		t.applyLinkChange(ev)
	}
}

// admit applies the arbitration rules. A device reading always wins; a
// phone reading is accepted only while no device fix stands.
func (t *Tracker) admit(sample models.TelemetrySample) {
	t.mu.Lock()

	if sample.Source == models.SourcePhone {
		if t.linkActive && t.latest != nil && t.latest.HasValidFix() {
			t.phoneDropped++
			t.mu.Unlock()
			t.logger.Debug().Msg("Phone sample discarded, device fix is authoritative")
			return
		}
		t.phoneTracking = true
	} else {
		t.phoneTracking = false
		t.continuingToTrack = false
		t.lastDeviceAt = sample.ReceivedAt
		t.resetStaleTimer()
	}

	t.latest = &sample
	t.history.Add(sample)
	t.samplesAccepted++
	t.mu.Unlock()

	t.publish(sample)
}

// resetStaleTimer rearms the device-silence watchdog. Callers hold the
// lock; the timer is only touched from the run loop.
func (t *Tracker) resetStaleTimer() {
	if !t.staleTimer.Stop() {
		select {
		case <-t.staleTimer.C:
		default:
		}
	}
	t.staleTimer.Reset(t.staleWindow)
}

// handleStale fires when no device sample arrived within the stale window.
// It only informs the UI; admission is still governed solely by the
// arbitration rules.
func (t *Tracker) handleStale() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.linkActive || time.Since(t.lastDeviceAt) < t.staleWindow {
		return
	}
	if t.continuingToTrack {
		return
	}
	t.continuingToTrack = true
	t.addNotice(models.NoticeInfo, "tracker", "Device went quiet, continuing to track")
	t.logger.Info().
		Time("last_device_at", t.lastDeviceAt).
		Msg("No device samples within stale window, continuing to track")
}

func (t *Tracker) applyLinkChange(ev event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.linkState = ev.link
	switch ev.link {
	case models.LinkConnected:
		t.linkActive = true
		t.connectedDevice = ev.device
		t.addNotice(models.NoticeInfo, "link", "Connected to device "+ev.device)
	case models.LinkConnecting:
		t.connectedDevice = ev.device
	case models.LinkDisconnected, models.LinkIdle:
		t.linkActive = false
		t.connectedDevice = ""
		t.continuingToTrack = false
		if ev.detail != "" {
			t.addNotice(models.NoticeWarning, "link", ev.detail)
		}
	}

	t.logger.Info().
		Str("state", string(ev.link)).
		Str("device", ev.device).
		Msg("Link state changed")
}

// publish pushes an accepted sample to live clients.
func (t *Tracker) publish(sample models.TelemetrySample) {
	if t.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to serialize sample for broadcast")
		return
	}
	t.broadcaster.Broadcast(payload)
}

// Notify records a user-facing notice from any component.
func (t *Tracker) Notify(level models.NoticeLevel, origin, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addNotice(level, origin, message)
}

// addNotice appends to the notice ring. Callers hold the lock.
func (t *Tracker) addNotice(level models.NoticeLevel, origin, message string) {
	t.notices.Add(models.Notice{
		Level:     level,
		Origin:    origin,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// RecordExport bumps the export counter shown in status.
func (t *Tracker) RecordExport() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exports++
}

// Latest returns the currently displayed sample. Before any data arrives
// it returns a placeholder and false.
func (t *Tracker) Latest() (models.TelemetrySample, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.latest == nil {
		return PlaceholderSample(), false
	}
	return *t.latest, true
}

// History returns the newest limit samples in insertion order. A limit
// <= 0 returns the full history.
func (t *Tracker) History(limit int) []models.TelemetrySample {
	if limit <= 0 {
		return t.history.Items()
	}
	return t.history.Tail(limit)
}

// Snapshot returns the complete history, oldest first.
func (t *Tracker) Snapshot() []models.TelemetrySample {
	return t.history.Items()
}

// Notices returns recent user-facing notices, oldest first.
func (t *Tracker) Notices() []models.Notice {
	return t.notices.Items()
}

// Status assembles the live status snapshot for the dashboard.
func (t *Tracker) Status() models.TrackerStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return models.TrackerStatus{
		LinkState:         t.linkState,
		ConnectedDevice:   t.connectedDevice,
		PhoneTracking:     t.phoneTracking,
		ContinuingToTrack: t.continuingToTrack,
		LastDeviceAt:      t.lastDeviceAt,
		HistoryLen:        t.history.Len(),
		SamplesAccepted:   t.samplesAccepted,
		PhoneDropped:      t.phoneDropped,
		DecodeErrors:      t.decodeErrors,
		Exports:           t.exports,
	}
}

// PlaceholderSample is what the UI shows before any data arrives.
func PlaceholderSample() models.TelemetrySample {
	return models.TelemetrySample{
		Alert:    constants.AlertNormal,
		Activity: constants.ActivityStationary,
	}
}
