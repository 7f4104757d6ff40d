package narration

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCharsPerSecond approximates natural speech pacing.
const DefaultCharsPerSecond = 15.0

// TickerEngine is a synthetic narration engine that paces through the text
// at a fixed characters-per-second rate on wall-clock ticks. It reports the
// byte offset of each rune boundary it passes, so positions always land in
// the clean-text coordinate space.
type TickerEngine struct {
	charsPerSec float64
	logger      zerolog.Logger

	mu         sync.Mutex
	onProgress ProgressFunc
	onCharPos  CharPositionFunc
	cancel     context.CancelFunc
	speaking   bool
}

// NewTickerEngine creates a TickerEngine. charsPerSec <= 0 selects the
// default rate.
func NewTickerEngine(charsPerSec float64, logger zerolog.Logger) *TickerEngine {
	if charsPerSec <= 0 {
		charsPerSec = DefaultCharsPerSecond
	}
	return &TickerEngine{
		charsPerSec: charsPerSec,
		logger:      logger.With().Str("component", "ticker-narrator").Logger(),
	}
}

// OnProgress installs the fractional progress callback.
func (t *TickerEngine) OnProgress(fn ProgressFunc) {
	t.mu.Lock()
	t.onProgress = fn
	t.mu.Unlock()
}

// OnCharPosition installs the character position callback.
func (t *TickerEngine) OnCharPosition(fn CharPositionFunc) {
	t.mu.Lock()
	t.onCharPos = fn
	t.mu.Unlock()
}

// Speak paces through text, invoking the callbacks once per rune, and
// returns when the text is exhausted, the context is cancelled, or Stop is
// called. It never returns a speech error; the synthetic engine cannot fail.
func (t *TickerEngine) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	t.speaking = true
	t.mu.Unlock()

	defer func() {
		cancel()
		t.mu.Lock()
		t.speaking = false
		if t.cancel != nil {
			t.cancel = nil
		}
		t.mu.Unlock()
	}()

	interval := time.Duration(float64(time.Second) / t.charsPerSec)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	total := len(text)
	runes := []rune(text)
	offset := 0

	t.logger.Debug().Int("chars", len(runes)).Msg("narration started")

	for _, r := range runes {
		select {
		case <-ctx.Done():
			t.logger.Debug().Int("offset", offset).Msg("narration stopped early")
			return nil
		case <-ticker.C:
		}

		offset += len(string(r))
		t.report(offset, total)
	}

	t.logger.Debug().Msg("narration completed")
	return nil
}

// Stop halts the current utterance. The pending Speak call returns.
func (t *TickerEngine) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// IsSpeaking reports whether an utterance is in flight.
func (t *TickerEngine) IsSpeaking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speaking
}

func (t *TickerEngine) report(offset, total int) {
	t.mu.Lock()
	progress := t.onProgress
	charPos := t.onCharPos
	t.mu.Unlock()

	if charPos != nil {
		charPos(offset)
	}
	if progress != nil && total > 0 {
		progress(float64(offset) / float64(total))
	}
}
