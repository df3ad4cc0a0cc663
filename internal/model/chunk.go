package model

// Chunk is a contiguous slice of a source document's text, the unit of
// embedding and retrieval. Chunks are created in bulk at ingestion and are
// immutable until the whole document is deleted.
type Chunk struct {
	Content     string `json:"content"`
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// DocumentMetadata is the per-document summary record. It is persisted
// independently of the vector index so listings keep working even when the
// index itself fails to load.
type DocumentMetadata struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
}
