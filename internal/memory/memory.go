// Package memory keeps the conversation history of a session and persists
// finished sessions to disk.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"Quill/internal/errs"
)

const (
	MaxSessions        = 50
	ExpiryDays         = 30
	SessionsFolder     = ".quill/sessions"
	DefaultMaxMessages = 100
)

// Roles of a message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Tool      string    `json:"tool,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a bounded message log. Once full, the oldest message is
// dropped for every new one.
type History struct {
	mu       sync.RWMutex
	max      int
	messages []Message
}

// NewHistory creates a history holding at most max messages, starting with
// systemMessage when it is not empty.
func NewHistory(max int, systemMessage string) *History {
	if max <= 0 {
		max = DefaultMaxMessages
	}
	h := &History{max: max}
	if systemMessage != "" {
		h.Add(RoleSystem, systemMessage)
	}
	return h
}

// Add appends a message.
func (h *History) Add(role, content string) {
	h.append(Message{Role: role, Content: content, Timestamp: time.Now()})
}

// AddTool appends the output of a tool call.
func (h *History) AddTool(tool, content string) {
	h.append(Message{Role: RoleTool, Tool: tool, Content: content, Timestamp: time.Now()})
}

// Restore appends previously recorded messages, keeping their timestamps.
// The bound still applies.
func (h *History) Restore(msgs []Message) {
	for _, m := range msgs {
		h.append(m)
	}
}

func (h *History) append(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, m)
	if over := len(h.messages) - h.max; over > 0 {
		h.messages = append([]Message(nil), h.messages[over:]...)
	}
}

// Messages returns a copy of the history, oldest first.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Message(nil), h.messages...)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear drops every message.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

type Session struct {
	ID        string    `json:"id"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// NewSession creates a new session
func NewSession(model string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
}

// ShortID is the first block of the session ID, as shown in listings.
func (s *Session) ShortID() string {
	id, _, _ := strings.Cut(s.ID, "-")
	return id
}

// Record replaces the session's messages with the history's.
func (s *Session) Record(h *History) {
	s.Messages = h.Messages()
	s.UpdatedAt = time.Now()
}

// Transcript renders the conversation as plain text.
func (s *Session) Transcript() string {
	var sb strings.Builder
	for _, msg := range s.Messages {
		if msg.Role == RoleSystem {
			continue
		}
		role := msg.Role
		if msg.Tool != "" {
			role = fmt.Sprintf("%s:%s", msg.Role, msg.Tool)
		}
		fmt.Fprintf(&sb, "[%s] %s:\n%s\n\n", msg.Timestamp.Format("15:04:05"), role, msg.Content)
	}
	return sb.String()
}

// Store saves sessions as JSON files in a directory.
type Store struct {
	dir string
}

// NewStore opens a store in dir, or ~/.quill/sessions when dir is empty.
func NewStore(dir string) *Store {
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, SessionsFolder)
	}
	return &Store{dir: dir}
}

// Dir returns the directory sessions are stored in.
func (st *Store) Dir() string {
	return st.dir
}

func (st *Store) path(id string) string {
	return filepath.Join(st.dir, id+".json")
}

// Save persists the session to disk
func (st *Store) Save(s *Session) error {
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return errs.Wrap(errs.ToolError, "memory.save", err, "Could not create sessions directory")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ToolError, "memory.save", err, "Could not encode session")
	}
	if err := os.WriteFile(st.path(s.ID), data, 0644); err != nil {
		return errs.Wrap(errs.ToolError, "memory.save", err, "Could not write session")
	}
	return nil
}

// Load loads a session by its full ID or a unique prefix of it.
func (st *Store) Load(id string) (*Session, error) {
	const op = "memory.load"
	data, err := os.ReadFile(st.path(id))
	if errors.Is(err, os.ErrNotExist) {
		full, ferr := st.resolve(id)
		if ferr != nil {
			return nil, ferr
		}
		data, err = os.ReadFile(st.path(full))
	}
	if err != nil {
		return nil, errs.Wrap(errs.ToolError, op, err, "Could not read session")
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errs.Wrap(errs.ToolError, op, err, "Session file is corrupted").With("id", id)
	}
	return &session, nil
}

func (st *Store) resolve(prefix string) (string, error) {
	const op = "memory.load"
	entries, err := os.ReadDir(st.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", errs.Wrap(errs.ToolError, op, err, "Could not read sessions directory")
	}
	var matches []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".json")
		if name != e.Name() && strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", errs.Newf(errs.NotFound, op, "Session not found: %s", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", errs.Newf(errs.InvalidInput, op, "Session ID '%s' is ambiguous", prefix).With("matches", matches)
	}
}

// List returns all sessions, most recently updated first. Unreadable files
// are skipped.
func (st *Store) List() ([]Session, error) {
	files, err := os.ReadDir(st.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Session{}, nil
		}
		return nil, errs.Wrap(errs.ToolError, "memory.list", err, "Could not read sessions directory")
	}

	var sessions []Session
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		session, err := st.Load(strings.TrimSuffix(f.Name(), ".json"))
		if err != nil {
			continue
		}
		sessions = append(sessions, *session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Latest returns the most recently updated session, or nil if there is none.
func (st *Store) Latest() (*Session, error) {
	sessions, err := st.List()
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return &sessions[0], nil
}

// Cleanup removes sessions older than ExpiryDays and all but the newest
// MaxSessions. It returns how many were removed.
func (st *Store) Cleanup(now time.Time) (int, error) {
	sessions, err := st.List()
	if err != nil {
		return 0, err
	}

	cutoff := now.AddDate(0, 0, -ExpiryDays)
	removed := 0
	for i, s := range sessions {
		if i < MaxSessions && !s.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(st.path(s.ID)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Delete removes a session by ID or unique prefix.
func (st *Store) Delete(id string) error {
	s, err := st.Load(id)
	if err != nil {
		return err
	}
	if err := os.Remove(st.path(s.ID)); err != nil {
		return errs.Wrap(errs.ToolError, "memory.delete", err, "Could not delete session")
	}
	return nil
}
