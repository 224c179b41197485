// Package memory holds short-term dialogue history and a scored
// working-memory scratchpad, and assembles the bounded context string
// fed into the next turn's prompt.
//
// Information Hiding:
// - Importance scoring heuristics hidden
// - Trim policy hidden behind AddMessage
// - Context assembly order hidden behind BuildContext
package memory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Role values for dialogue messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one short-term dialogue entry.
type Message struct {
	Role       string
	Content    string
	Timestamp  time.Time
	Importance float64
	// ToolInvoked records whether this message led to a tool call.
	// Set by the orchestrator, consumed by importance scoring.
	ToolInvoked bool
}

// WorkingEntry is one scratchpad value written from tool outcomes.
type WorkingEntry struct {
	Value       any
	UpdatedAt   time.Time
	AccessCount int
}

// Snapshot is a point-in-time copy of the manager's state.
type Snapshot struct {
	Messages []Message
	Working  map[string]WorkingEntry
}

// Config bounds the manager. The zero value is safe.
type Config struct {
	// MaxMessages caps short-term history; oldest trimmed first.
	MaxMessages int
	// WorkingTTL is the age past which an entry becomes evictable.
	WorkingTTL time.Duration
	// AccessThreshold protects frequently-read entries from eviction.
	AccessThreshold int
	// RecencyWindow bounds which working entries appear in context.
	RecencyWindow time.Duration
}

func (c Config) maxMessages() int {
	if c.MaxMessages <= 0 {
		return 50
	}
	return c.MaxMessages
}

func (c Config) workingTTL() time.Duration {
	if c.WorkingTTL <= 0 {
		return time.Hour
	}
	return c.WorkingTTL
}

func (c Config) accessThreshold() int {
	if c.AccessThreshold <= 0 {
		return 3
	}
	return c.AccessThreshold
}

func (c Config) recencyWindow() time.Duration {
	if c.RecencyWindow <= 0 {
		return 30 * time.Minute
	}
	return c.RecencyWindow
}

// Manager is the process-wide conversational memory. Shared across
// turns; every mutation takes the lock.
type Manager struct {
	mu       sync.Mutex
	config   Config
	logger   *zap.Logger
	messages []Message
	working  map[string]*WorkingEntry
	entities *entityIndex
}

// NewManager creates a memory manager. A nil logger disables logging.
func NewManager(config Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		config:   config,
		logger:   logger,
		working:  make(map[string]*WorkingEntry),
		entities: newEntityIndex(),
	}
}

// AddMessage scores and appends one dialogue message, trimming the
// oldest entries once the history cap is exceeded.
func (m *Manager) AddMessage(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Importance = scoreImportance(msg)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	m.entities.observe(msg.Content, msg.Timestamp)

	if excess := len(m.messages) - m.config.maxMessages(); excess > 0 {
		m.messages = m.messages[excess:]
		m.logger.Debug("trimmed short-term history",
			zap.Int("dropped", excess),
			zap.Int("kept", len(m.messages)))
	}
}

// Messages returns a copy of the short-term history, oldest first.
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// UpdateWorking writes a scratchpad entry, resetting its age but
// preserving its access count.
func (m *Manager) UpdateWorking(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.working[key]
	if !ok {
		entry = &WorkingEntry{}
		m.working[key] = entry
	}
	entry.Value = value
	entry.UpdatedAt = time.Now()
}

// GetWorking reads a scratchpad entry, bumping its access count.
func (m *Manager) GetWorking(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.working[key]
	if !ok {
		return nil, false
	}
	entry.AccessCount++
	return entry.Value, true
}

// Sweep evicts working entries that are both older than the TTL and
// below the access-count threshold. Entries read often enough survive
// regardless of age. Returns the number evicted.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	evicted := 0
	for key, entry := range m.working {
		stale := now.Sub(entry.UpdatedAt) > m.config.workingTTL()
		cold := entry.AccessCount < m.config.accessThreshold()
		if stale && cold {
			delete(m.working, key)
			evicted++
		}
	}

	if evicted > 0 {
		m.logger.Debug("swept working memory",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(m.working)))
	}
	return evicted
}

// Snapshot copies the manager's state for test isolation and restore.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Messages: make([]Message, len(m.messages)),
		Working:  make(map[string]WorkingEntry, len(m.working)),
	}
	copy(snap.Messages, m.messages)
	for key, entry := range m.working {
		snap.Working[key] = *entry
	}
	return snap
}

// Restore replaces the manager's state with a snapshot.
func (m *Manager) Restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = make([]Message, len(snap.Messages))
	copy(m.messages, snap.Messages)

	m.working = make(map[string]*WorkingEntry, len(snap.Working))
	for key, entry := range snap.Working {
		e := entry
		m.working[key] = &e
	}

	m.entities = newEntityIndex()
	for _, msg := range m.messages {
		m.entities.observe(msg.Content, msg.Timestamp)
	}
}

// BuildContext assembles the prompt context string: known entities,
// recent working-memory entries, then dialogue selected backwards from
// the newest message under the token budget. Messages that would
// overflow the budget are excluded whole, never truncated.
func (m *Manager) BuildContext(maxTokens int) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder

	if entities := m.entities.top(5); len(entities) > 0 {
		b.WriteString("Known entities: ")
		b.WriteString(strings.Join(entities, ", "))
		b.WriteString("\n")
	}

	if lines := m.workingContextLocked(5); len(lines) > 0 {
		b.WriteString("Working memory:\n")
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	selected := m.selectDialogueLocked(maxTokens)
	if len(selected) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, msg := range selected {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	return b.String()
}

// workingContextLocked renders up to limit recently-updated entries,
// highest access count first. Caller holds the lock.
func (m *Manager) workingContextLocked(limit int) []string {
	cutoff := time.Now().Add(-m.config.recencyWindow())

	type ranked struct {
		key   string
		entry *WorkingEntry
	}
	var recent []ranked
	for key, entry := range m.working {
		if entry.UpdatedAt.After(cutoff) {
			recent = append(recent, ranked{key, entry})
		}
	}

	// Access count first, key as a stable tiebreak.
	sort.Slice(recent, func(i, j int) bool {
		if recent[i].entry.AccessCount != recent[j].entry.AccessCount {
			return recent[i].entry.AccessCount > recent[j].entry.AccessCount
		}
		return recent[i].key < recent[j].key
	})

	if len(recent) > limit {
		recent = recent[:limit]
	}

	lines := make([]string, 0, len(recent))
	for _, r := range recent {
		lines = append(lines, fmt.Sprintf("- %s: %v", r.key, r.entry.Value))
	}
	return lines
}

// selectDialogueLocked walks backwards from the newest message,
// accumulating estimated token cost until the budget would be exceeded.
// Returns the selection oldest first. Caller holds the lock.
func (m *Manager) selectDialogueLocked(maxTokens int) []Message {
	var selected []Message
	used := 0
	for i := len(m.messages) - 1; i >= 0; i-- {
		cost := estimateTokens(m.messages[i].Content)
		if used+cost > maxTokens {
			break
		}
		used += cost
		selected = append(selected, m.messages[i])
	}

	// Reverse into chronological order.
	for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
		selected[i], selected[j] = selected[j], selected[i]
	}
	return selected
}

// estimateTokens approximates token cost as ceil(len/4).
func estimateTokens(content string) int {
	return int(math.Ceil(float64(len(content)) / 4))
}

var urgencyKeywords = []string{"urgent", "asap", "important", "critical", "deadline", "immediately"}
var problemKeywords = []string{"error", "failed", "problem", "broken", "wrong", "issue"}

// scoreImportance derives advisory importance metadata for a message.
// Currently informs ranking only, never retention.
func scoreImportance(msg Message) float64 {
	score := 0.5
	lower := strings.ToLower(msg.Content)

	if msg.ToolInvoked {
		score += 0.3
	}
	if containsAny(lower, urgencyKeywords) {
		score += 0.2
	}
	if strings.Contains(lower, "?") {
		score += 0.1
	}
	if containsAny(lower, problemKeywords) {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
