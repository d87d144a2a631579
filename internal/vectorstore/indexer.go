package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"

	"Quill/internal/memory"
)

// IndexSession indexes the user, assistant and tool messages of a session.
// It returns how many messages were indexed.
func IndexSession(ctx context.Context, store *ChromemStore, session *memory.Session) (int, error) {
	var docs []chromem.Document
	for i, msg := range session.Messages {
		if msg.Role == memory.RoleSystem || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s_%d", session.ID, i),
			Content: msg.Content,
			Metadata: map[string]string{
				"session_id": session.ID,
				"model":      session.Model,
				"role":       msg.Role,
				"tool":       msg.Tool,
				"timestamp":  msg.Timestamp.Format("2006-01-02 15:04:05"),
			},
		})
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := store.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to index session %s: %w", session.ID, err)
	}
	return len(docs), nil
}
