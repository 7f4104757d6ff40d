package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/luma/internal/bus"
	"github.com/normanking/luma/internal/directive"
	"github.com/normanking/luma/internal/narration"
)

// Brain is the language-model boundary consumed by the machine.
type Brain interface {
	Ask(ctx context.Context, transcript, convContext string) (string, error)
}

// baselineReverter restores the calm emotion/shape baseline in one call.
// Actuators without it fall back to the individual capabilities.
type baselineReverter interface {
	RevertToBaseline(emotion, shape string)
}

// Options tunes the machine's timers, baselines, and fixed strings.
type Options struct {
	ProcessingTimeout time.Duration
	IdleRevertDelay   time.Duration
	ScreenRevertDelay time.Duration
	MeditationPhase   time.Duration
	BaselineEmotion   string
	BaselineShape     string
	DefaultDisplay    string
	ApologyText       string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ProcessingTimeout: 8 * time.Second,
		IdleRevertDelay:   30 * time.Second,
		ScreenRevertDelay: 10 * time.Second,
		MeditationPhase:   4 * time.Second,
		BaselineEmotion:   "calm",
		BaselineShape:     "orb",
		DefaultDisplay:    "Luma",
		ApologyText:       "Sorry, I lost my train of thought. Could you say that again?",
	}
}

// Deps are the machine's collaborators.
type Deps struct {
	Brain    Brain
	Narrator narration.Engine
	Actuator any
	Bus      *bus.EventBus
	Logger   zerolog.Logger
	History  *History
}

// Machine is the top-level conversation coordinator. It is the single
// writer of the interaction state, the session flags, and the per-reply
// directive list/cursor pair; all mutation happens on discrete callback
// turns behind its mutex.
type Machine struct {
	opts     Options
	log      zerolog.Logger
	events   *bus.EventBus
	brain    Brain
	narrator narration.Engine
	actuator any

	extractor  *directive.Extractor
	trailer    *directive.TrailerParser
	dispatcher *directive.Dispatcher
	replay     *directive.Synchronizer
	history    *History
	timers     *TimerSet

	mu                sync.Mutex
	state             State
	generation        uint64
	cancelReply       context.CancelFunc
	persistEmotion    bool
	manualSelection   bool
	pendingMeditation bool
	meditationStep    int
}

// NewMachine wires a Machine from its collaborators.
func NewMachine(opts Options, deps Deps) *Machine {
	log := deps.Logger.With().Str("component", "conversation").Logger()

	m := &Machine{
		opts:      opts,
		log:       log,
		events:    deps.Bus,
		brain:     deps.Brain,
		narrator:  deps.Narrator,
		actuator:  deps.Actuator,
		extractor: directive.NewExtractor(),
		trailer:   directive.NewTrailerParser(deps.Logger),
		history:   deps.History,
		timers:    NewTimerSet(),
		state:     StateIdle,
	}
	if m.history == nil {
		m.history = NewHistory(DefaultHistoryConfig())
	}
	m.dispatcher = directive.NewDispatcher(deps.Actuator, deps.Logger)
	m.replay = directive.NewSynchronizer(m.fireDirective)
	return m
}

// State returns the current interaction state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Progress returns the directive replay progress for UI feedback.
func (m *Machine) Progress() float64 {
	return m.replay.Progress()
}

// SetPersistEmotion marks the current emotion as explicitly requested by
// the user, which suppresses the idle revert.
func (m *Machine) SetPersistEmotion(persist bool) {
	m.mu.Lock()
	m.persistEmotion = persist
	m.mu.Unlock()
}

// StartListening begins voice capture. Accepted only while idle.
func (m *Machine) StartListening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return false
	}
	m.setStateLocked(StateListening)
	return true
}

// StopListening ends voice capture and waits for the transcript. The
// processing timeout guarantees a deterministic return to idle when no
// transcript ever arrives.
func (m *Machine) StopListening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateListening {
		return false
	}
	m.setStateLocked(StateProcessing)
	m.timers.Start(TimerProcessingTimeout, m.opts.ProcessingTimeout, m.onProcessingTimeout)
	return true
}

// HandleTranscript delivers the recognized transcript. An empty transcript
// returns to idle silently, the same as a timeout.
func (m *Machine) HandleTranscript(text string) {
	m.mu.Lock()

	if m.state != StateProcessing {
		m.mu.Unlock()
		m.log.Debug().Str("state", string(m.State())).Msg("transcript ignored outside processing")
		return
	}
	m.timers.Cancel(TimerProcessingTimeout)

	text = strings.TrimSpace(text)
	if text == "" {
		m.setStateLocked(StateIdle)
		m.mu.Unlock()
		return
	}

	m.setStateLocked(StateThinking)
	gen := m.generation
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelReply = cancel
	m.mu.Unlock()

	m.events.Publish(bus.Event{Type: bus.EventTypeTranscript, Data: map[string]any{"text": text}})

	go m.ask(ctx, gen, text)
}

// Cancel is the user-initiated interrupt: it aborts the in-flight brain
// request, stops narration, zeroes the progress indicator, clears the
// processing timeout, and transitions unconditionally to idle. Remaining
// directives are discarded, not fired; the idle baseline is restored by the
// next reply's reverts.
func (m *Machine) Cancel() {
	m.mu.Lock()
	m.generation++
	if m.cancelReply != nil {
		m.cancelReply()
		m.cancelReply = nil
	}
	m.timers.Cancel(TimerProcessingTimeout)
	m.timers.Cancel(TimerMeditationPhase)
	m.pendingMeditation = false
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	m.narrator.Stop()
	m.replay.Reset()

	m.events.Publish(bus.Event{Type: bus.EventTypeCancelled, Data: map[string]any{"progress": 0.0}})
	m.events.Publish(bus.Event{Type: bus.EventTypeNarrationStopped, Data: map[string]any{"progress": 0.0}})
}

// EndMeditation leaves the breathing loop.
func (m *Machine) EndMeditation() {
	m.mu.Lock()
	if m.state != StateMeditation {
		m.mu.Unlock()
		return
	}
	m.timers.Cancel(TimerMeditationPhase)
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	m.scheduleReverts()
}

// OpenCarousel enters the modal shape-selection UI. Accepted only from idle.
func (m *Machine) OpenCarousel() bool { return m.openModal(StateCarousel) }

// OpenPanel enters the modal settings panel. Accepted only from idle.
func (m *Machine) OpenPanel() bool { return m.openModal(StatePanel) }

// StartTutorial enters the scripted onboarding sequence, mutually exclusive
// with every other state.
func (m *Machine) StartTutorial() bool { return m.openModal(StateTutorial) }

// CloseModal leaves the active modal (carousel, panel, or tutorial).
func (m *Machine) CloseModal() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Modal() {
		return
	}
	m.setStateLocked(StateIdle)
}

// SelectShape applies a manual carousel selection. The manual-selection
// flag suppresses the idle revert so the user's pick sticks.
func (m *Machine) SelectShape(shape string) {
	m.mu.Lock()
	if m.state != StateCarousel {
		m.mu.Unlock()
		return
	}
	m.manualSelection = true
	m.mu.Unlock()

	m.dispatcher.Dispatch(directive.Directive{Category: directive.CategoryShape, RawValue: shape})
}

// SelectEmotion applies a manual panel selection.
func (m *Machine) SelectEmotion(emotion string) {
	m.mu.Lock()
	if m.state != StatePanel {
		m.mu.Unlock()
		return
	}
	m.manualSelection = true
	m.mu.Unlock()

	m.dispatcher.Dispatch(directive.Directive{Category: directive.CategoryEmotion, RawValue: emotion})
}

func (m *Machine) openModal(target State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return false
	}
	m.setStateLocked(target)
	return true
}

// onProcessingTimeout fires when no transcript arrived in time. Treated
// identically to an empty transcript: back to idle silently.
func (m *Machine) onProcessingTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateProcessing {
		return
	}
	m.log.Debug().Msg("processing timeout, no transcript")
	m.setStateLocked(StateIdle)
}

// ask runs the brain round trip off the callback turn and re-enters the
// machine with the outcome.
func (m *Machine) ask(ctx context.Context, gen uint64, transcript string) {
	reply, err := m.brain.Ask(ctx, transcript, m.history.Context())

	if m.stale(gen) {
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.failReply(err)
		return
	}

	m.history.Add(transcript, reply)
	m.events.Publish(bus.Event{Type: bus.EventTypeReplyReceived, Data: map[string]any{"chars": len(reply)}})
	m.speakReply(ctx, gen, reply)
}

// failReply is the transport-failure path: idle, apology, neutral baseline,
// normal reverts.
func (m *Machine) failReply(err error) {
	m.log.Error().Err(err).Msg("brain request failed")

	m.mu.Lock()
	m.cancelReply = nil
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	m.events.Publish(bus.Event{Type: bus.EventTypeError, Data: map[string]any{"error": err.Error()}})
	m.events.Publish(bus.Event{Type: bus.EventTypeDisplayText, Data: map[string]any{"text": m.opts.ApologyText}})

	if a, ok := m.actuator.(directive.EmotionSetter); ok {
		a.SetEmotion(m.opts.BaselineEmotion, "")
	}
	m.scheduleReverts()
}

// speakReply applies the trailing directives, loads the inline directive
// list, narrates the clean text while replaying directives against the
// narration position, and settles the post-reply state.
func (m *Machine) speakReply(ctx context.Context, gen uint64, raw string) {
	tr := m.trailer.Parse(raw)
	m.applyTrailer(tr)

	clean := m.extractor.Parse(tr.Body)
	m.replay.Load(m.extractor.Directives())

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.pendingMeditation = tr.MeditationStart
	m.setStateLocked(StateSpeaking)
	m.mu.Unlock()

	m.events.Publish(bus.Event{Type: bus.EventTypeNarrationStarted, Data: map[string]any{"chars": len(clean)}})
	m.events.Publish(bus.Event{Type: bus.EventTypeDisplayText, Data: map[string]any{"text": clean}})

	// Exactly one progress subscription per reply; replay only runs while
	// the machine is actually speaking this reply.
	m.narrator.OnCharPosition(func(offset int) {
		if m.replaying(gen) {
			m.replay.UpdateProgress(offset)
		}
	})
	m.narrator.OnProgress(func(fraction float64) {
		m.events.Publish(bus.Event{Type: bus.EventTypeNarrationProgress, Data: map[string]any{"fraction": fraction}})
	})

	err := m.narrator.Speak(ctx, clean)

	m.narrator.OnCharPosition(nil)
	m.narrator.OnProgress(nil)

	if err != nil {
		m.log.Warn().Err(err).Msg("narration failed")
	}

	if m.stale(gen) {
		// Cancelled mid-speech; Cancel already discarded the directives.
		return
	}

	// Normal completion: narration may end before the last directive's
	// offset, so flush the remainder in order.
	m.replay.TriggerRemaining()
	m.replay.Reset()

	m.mu.Lock()
	m.cancelReply = nil
	meditate := m.pendingMeditation
	m.pendingMeditation = false
	m.mu.Unlock()

	if meditate {
		m.enterMeditation(gen)
		return
	}
	m.finishReply()
}

// applyTrailer applies the trailing directives once, before narration
// begins. FEEL keeps its permissive semantics: the value is applied even
// when the emotion token had no correction.
func (m *Machine) applyTrailer(tr directive.Trailer) {
	if tr.Feel != "" {
		emotion, gesture, _ := strings.Cut(tr.Feel, ",")
		if a, ok := m.actuator.(directive.EmotionSetter); ok {
			a.SetEmotion(emotion, gesture)
		}
	}
	if tr.Shape != "" {
		m.dispatcher.Dispatch(directive.Directive{Category: directive.CategoryShape, RawValue: tr.Shape})
	}
	if tr.Preset != "" {
		m.dispatcher.Dispatch(directive.Directive{Category: directive.CategoryPreset, RawValue: tr.Preset})
	}
	if tr.Undertone != "" {
		m.dispatcher.Dispatch(directive.Directive{Category: directive.CategoryUndertone, RawValue: tr.Undertone})
	}
	if tr.Chain != "" {
		m.dispatcher.Dispatch(directive.Directive{Category: directive.CategoryChain, RawValue: tr.Chain})
	}
	if tr.Camera != "" {
		m.dispatcher.Dispatch(directive.Directive{Category: directive.CategoryCamera, RawValue: tr.Camera})
	}
	for _, tog := range tr.Toggles {
		mod := "off"
		if tog.On {
			mod = "on"
		}
		m.dispatcher.Dispatch(directive.Directive{
			Category: directive.CategoryToggle,
			RawValue: tog.Feature,
			Modifier: mod,
		})
	}
}

// fireDirective is the synchronizer's sink.
func (m *Machine) fireDirective(d directive.Directive) {
	m.dispatcher.Dispatch(d)
	m.events.Publish(bus.Event{Type: bus.EventTypeDirectiveFired, Data: map[string]any{
		"category": string(d.Category),
		"value":    d.RawValue,
		"offset":   d.Offset,
	}})
}

// replaying reports whether directive replay is allowed right now: the
// reply generation matches and the machine is in the speaking state (which
// covers the pre-meditation narration sub-phase).
func (m *Machine) replaying(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation == gen && m.state == StateSpeaking
}

func (m *Machine) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation != gen
}

// finishReply settles back to idle and schedules the revert pair.
func (m *Machine) finishReply() {
	m.mu.Lock()
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	m.scheduleReverts()
}

// enterMeditation starts the guided breathing loop after the introductory
// narration completed.
func (m *Machine) enterMeditation(gen uint64) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.meditationStep = 0
	m.setStateLocked(StateMeditation)
	m.mu.Unlock()

	m.scheduleMeditationPhase()
}

var meditationPhases = []string{"inhale", "hold", "exhale"}

func (m *Machine) scheduleMeditationPhase() {
	m.mu.Lock()
	if m.state != StateMeditation {
		m.mu.Unlock()
		return
	}
	phase := meditationPhases[m.meditationStep%len(meditationPhases)]
	m.meditationStep++
	m.mu.Unlock()

	m.events.Publish(bus.Event{Type: bus.EventTypeMeditationPhase, Data: map[string]any{"phase": phase}})
	m.timers.Start(TimerMeditationPhase, m.opts.MeditationPhase, m.scheduleMeditationPhase)
}

// scheduleReverts arms the post-reply timer pair. The idle revert restores
// the calm baseline unless the user asked for a persistent emotion or made
// a manual selection; the screen revert restores the default display text.
func (m *Machine) scheduleReverts() {
	m.timers.Start(TimerIdleRevert, m.opts.IdleRevertDelay, func() {
		m.mu.Lock()
		skip := m.persistEmotion || m.manualSelection
		m.mu.Unlock()
		if skip {
			return
		}
		m.revertToBaseline()
	})
	m.timers.Start(TimerScreenRevert, m.opts.ScreenRevertDelay, func() {
		m.events.Publish(bus.Event{Type: bus.EventTypeDisplayText, Data: map[string]any{"text": m.opts.DefaultDisplay}})
	})
}

func (m *Machine) revertToBaseline() {
	if a, ok := m.actuator.(baselineReverter); ok {
		a.RevertToBaseline(m.opts.BaselineEmotion, m.opts.BaselineShape)
		return
	}
	if a, ok := m.actuator.(directive.EmotionSetter); ok {
		a.SetEmotion(m.opts.BaselineEmotion, "")
	}
	if a, ok := m.actuator.(directive.Morpher); ok {
		a.MorphTo(m.opts.BaselineShape)
	}
}

// setStateLocked performs the transition bookkeeping. Caller holds the lock.
func (m *Machine) setStateLocked(next State) {
	if m.state == next {
		return
	}
	prev := m.state
	m.state = next

	// Any non-idle state cancels the pending revert pair.
	if next != StateIdle {
		m.timers.Cancel(TimerIdleRevert)
		m.timers.Cancel(TimerScreenRevert)
	}

	m.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("state transition")
	m.events.Publish(bus.Event{Type: bus.EventTypeStateChanged, Data: map[string]any{
		"from": string(prev),
		"to":   string(next),
	}})
}
