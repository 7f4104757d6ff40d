package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Exchange represents a user-assistant conversation turn.
type Exchange struct {
	UserText      string    `json:"userText"`
	AssistantText string    `json:"assistantText"`
	Timestamp     time.Time `json:"timestamp"`
}

// HistoryConfig configures the exchange history.
type HistoryConfig struct {
	// MaxExchanges is the maximum number of exchanges to retain (default: 10)
	MaxExchanges int
	// InactivityTimeout is the duration after which context expires (default: 5 minutes)
	InactivityTimeout time.Duration
}

// DefaultHistoryConfig returns sensible defaults.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		MaxExchanges:      10,
		InactivityTimeout: 5 * time.Minute,
	}
}

// History stores recent exchanges and renders them as brain context.
// Context expires after a period of inactivity so stale conversations do
// not bleed into new ones.
type History struct {
	mu           sync.RWMutex
	exchanges    []Exchange
	lastActivity time.Time
	config       HistoryConfig
}

// NewHistory creates a History with the given config.
func NewHistory(config HistoryConfig) *History {
	if config.MaxExchanges <= 0 {
		config.MaxExchanges = 10
	}
	if config.InactivityTimeout <= 0 {
		config.InactivityTimeout = 5 * time.Minute
	}

	return &History{
		exchanges:    make([]Exchange, 0, config.MaxExchanges),
		lastActivity: time.Now(),
		config:       config,
	}
}

// Add records a user/assistant exchange pair, trimming to MaxExchanges.
func (h *History) Add(userText, assistantText string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.expiredLocked() {
		h.exchanges = h.exchanges[:0]
	}

	h.exchanges = append(h.exchanges, Exchange{
		UserText:      userText,
		AssistantText: assistantText,
		Timestamp:     time.Now(),
	})
	h.lastActivity = time.Now()

	if len(h.exchanges) > h.config.MaxExchanges {
		h.exchanges = h.exchanges[len(h.exchanges)-h.config.MaxExchanges:]
	}
}

// Context returns the formatted conversation history for the brain prompt.
// Returns empty string when the history is empty or expired.
func (h *History) Context() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.expiredLocked() || len(h.exchanges) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Previous conversation:\n")
	for _, ex := range h.exchanges {
		assistant := ex.AssistantText
		if len(assistant) > 200 {
			assistant = assistant[:200] + "..."
		}
		fmt.Fprintf(&sb, "User: %s\n", ex.UserText)
		fmt.Fprintf(&sb, "Assistant: %s\n", assistant)
	}
	return sb.String()
}

// Count returns the number of stored exchanges.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.exchanges)
}

// Clear removes all conversation history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = h.exchanges[:0]
}

// Expired checks whether the context has lapsed due to inactivity.
func (h *History) Expired() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.expiredLocked()
}

func (h *History) expiredLocked() bool {
	if len(h.exchanges) == 0 {
		return false
	}
	return time.Since(h.lastActivity) > h.config.InactivityTimeout
}
