package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn of a session's short-term history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source identifies the document a retrieved chunk came from. The chat
// endpoint reports one Source per distinct document, not per chunk.
type Source struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}
