package index

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/pkg/dbutil"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
)

type postgresConfig struct {
	DSN        string `json:"dsn"`
	Dimensions int    `json:"dimensions"`
}

// postgresStore keeps chunks and vectors in pgvector. Unlike the local
// backend it supports point deletion natively, so deletes are row deletes
// inside a transaction rather than a full rebuild; the external contract is
// identical.
type postgresStore struct {
	db *sql.DB
}

func init() {
	Register("postgres", createPostgresStore)
}

func createPostgresStore(args interface{}) (Store, error) {
	cfg := &postgresConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres index dsn is required")
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 768
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := applySchema(db, cfg.Dimensions); err != nil {
		return nil, fmt.Errorf("apply index schema: %w", err)
	}
	return &postgresStore{db: db}, nil
}

func applySchema(db *sql.DB, dims int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS rag_documents (
			document_id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			total_chunks INT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_chunks (
			id BIGSERIAL PRIMARY KEY,
			document_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			chunk_index INT NOT NULL,
			total_chunks INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dims),
		`CREATE INDEX IF NOT EXISTS idx_rag_chunks_document ON rag_chunks (document_id)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *postgresStore) Insert(ctx context.Context, meta model.DocumentMetadata, chunks []model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperrors.ErrPersistence, err)
	}
	defer tx.Rollback()

	docRow := map[string]interface{}{
		"document_id":  meta.DocumentID,
		"filename":     meta.Filename,
		"total_chunks": meta.TotalChunks,
	}
	sqlStr, args, err := builder.BuildInsert("rag_documents", []map[string]interface{}{docRow})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return fmt.Errorf("document %s already exists", meta.DocumentID)
		}
		return fmt.Errorf("%w: insert metadata: %v", apperrors.ErrPersistence, err)
	}

	const insertChunk = `
		INSERT INTO rag_chunks (document_id, filename, chunk_index, total_chunks, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, insertChunk,
			chunk.DocumentID,
			chunk.Filename,
			chunk.ChunkIndex,
			chunk.TotalChunks,
			chunk.Content,
			pgvector.NewVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("%w: insert chunk %d: %v", apperrors.ErrPersistence, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (s *postgresStore) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: begin: %v", apperrors.ErrPersistence, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM rag_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return false, fmt.Errorf("%w: delete chunks: %v", apperrors.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_documents WHERE document_id = $1`, documentID); err != nil {
		return false, fmt.Errorf("%w: delete metadata: %v", apperrors.ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: commit: %v", apperrors.ErrPersistence, err)
	}
	return true, nil
}

func (s *postgresStore) Search(ctx context.Context, vector []float32, k int) ([]model.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	const query = `
		SELECT content, document_id, filename, chunk_index, total_chunks
		FROM rag_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *postgresStore) Chunks(ctx context.Context, documentID string) ([]model.Chunk, error) {
	fields := []string{"content", "document_id", "filename", "chunk_index", "total_chunks"}
	where := map[string]interface{}{"_orderby": "document_id, chunk_index"}
	if documentID != "" {
		where["document_id"] = documentID
	}
	sqlStr, args, err := builder.BuildSelect("rag_chunks", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *postgresStore) ListDocuments(ctx context.Context) (map[string]model.DocumentMetadata, error) {
	sqlStr, args, err := builder.BuildSelect("rag_documents", nil, []string{"document_id", "filename", "total_chunks"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]model.DocumentMetadata{}
	for rows.Next() {
		var meta model.DocumentMetadata
		if err := rows.Scan(&meta.DocumentID, &meta.Filename, &meta.TotalChunks); err != nil {
			return nil, err
		}
		out[meta.DocumentID] = meta
	}
	return out, rows.Err()
}

func (s *postgresStore) Len(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rag_chunks`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanChunks(rows *sql.Rows) ([]model.Chunk, error) {
	var out []model.Chunk
	for rows.Next() {
		var chunk model.Chunk
		if err := rows.Scan(&chunk.Content, &chunk.DocumentID, &chunk.Filename, &chunk.ChunkIndex, &chunk.TotalChunks); err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}
