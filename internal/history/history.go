package history

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	historyFileName = "tchat_input_history"
	maxEntries      = 1000
)

// History manages the input history of the chat textarea, persisted across
// sessions. The cursor is -1 when the user is composing new input.
type History struct {
	mu      sync.Mutex
	entries []string
	cursor  int
	draft   string
	path    string
}

// New loads the persisted history.
func New() *History {
	h := &History{
		cursor: -1,
		path:   filepath.Join(os.TempDir(), historyFileName),
	}
	h.load()
	return h
}

// Add records a submitted input and resets navigation.
func (h *History) Add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	h.mu.Lock()
	h.cursor = -1
	h.draft = ""
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		h.mu.Unlock()
		return
	}
	h.entries = append(h.entries, entry)
	if len(h.entries) > maxEntries {
		h.entries = h.entries[len(h.entries)-maxEntries:]
	}
	h.mu.Unlock()
	h.save()
}

// Previous moves toward older entries. The current textarea content is
// stashed on first navigation so Next can restore it.
func (h *History) Previous(current string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.draft = current
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	default:
		return h.entries[0], false
	}
	return h.entries[h.cursor], true
}

// Next moves toward the present, eventually restoring the stashed draft.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return h.draft, true
	}
	return h.entries[h.cursor], true
}

// Reset abandons navigation. Call when the input is modified.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = -1
	h.draft = ""
}

func (h *History) load() {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, err := os.Open(h.path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.ReplaceAll(line, "\\n", "\n")
		line = strings.ReplaceAll(line, "\\\\", "\\")
		if line != "" {
			h.entries = append(h.entries, line)
		}
	}
	if len(h.entries) > maxEntries {
		h.entries = h.entries[len(h.entries)-maxEntries:]
	}
}

func (h *History) save() {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, err := os.Create(h.path)
	if err != nil {
		return // History persistence is best-effort.
	}
	defer f.Close()
	writer := bufio.NewWriter(f)
	for _, entry := range h.entries {
		escaped := strings.ReplaceAll(entry, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		writer.WriteString(escaped + "\n")
	}
	writer.Flush()
}
