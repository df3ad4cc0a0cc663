package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/model"
)

// NoInformationAvailable is the canonical sentinel for an answer the
// supplied context cannot ground: it is emitted verbatim both when nothing
// was retrieved and by the model when the documents lack the answer.
const NoInformationAvailable = "No information available."

// errorTokenPrefix marks the single terminal token appended when
// generation fails mid-stream; clients display it as text.
const errorTokenPrefix = "Error: "

const contextTruncatedMarker = "\n\n[Context truncated for length.]"

const systemPrompt = `You are a professional, context-aware document analysis assistant.
Read the provided document text and extract precise information from it.
Always respond strictly based on the document content.

Core rules:
1. Never guess, assume, or infer beyond the document. If the answer is missing, reply exactly: ` + NoInformationAvailable + `
2. Be concise, factual, and neutral. No greetings, filler, or opinions.
3. Format to fit the complexity of the data:
- Single fact: use "Field: Value".
- Multiple related facts: use a clean two-column markdown table.
- Enumerable items: use bullet points.
- Hierarchical or multi-section answers: use headings.
4. Dates, amounts, and identifiers must match the document exactly.
5. Do not add markdown table separator rows (|---|---|).
6. Do not include explanations, only the extracted data.`

// ChatService assembles the grounded prompt and streams the model's answer
// token by token, suppressing markdown table separator rows inline and
// normalizing the full answer once the stream completes.
type ChatService struct {
	generator       ai.IStreamGenerator
	maxContextChars int
	temperature     float32
	maxOutputTokens int32
}

func NewChatService(generator ai.IStreamGenerator, maxContextChars int, temperature float32, maxOutputTokens int32) *ChatService {
	if maxContextChars <= 0 {
		maxContextChars = 15000
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = 600
	}
	return &ChatService{
		generator:       generator,
		maxContextChars: maxContextChars,
		temperature:     temperature,
		maxOutputTokens: maxOutputTokens,
	}
}

// BuildContext formats the retrieved chunks into the labeled context block
// sent to the model, hard-truncated to the configured character budget.
func (s *ChatService) BuildContext(chunks []model.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		content := strings.TrimSpace(chunk.Content)
		if content == "" {
			continue
		}
		filename := chunk.Filename
		if filename == "" {
			filename = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("--- Section %d (from %s) ---\n%s", i+1, filename, content))
	}
	context := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if len(context) > s.maxContextChars {
		context = context[:s.maxContextChars] + contextTruncatedMarker
	}
	return context
}

// Answer streams the answer for question over the supplied chunks and
// session history, invoking fn once per forwarded token. It returns the
// cleaned full answer for memory/verification. Generation failures are
// logged and surface as a single error token, never as a broken stream.
func (s *ChatService) Answer(ctx context.Context, question string, history []model.ChatMessage, chunks []model.Chunk, fn ai.StreamHandler) (string, error) {
	logger := logutil.GetLogger(ctx)

	contextBlock := s.BuildContext(chunks)
	if contextBlock == "" {
		if err := fn(NoInformationAvailable); err != nil {
			return "", err
		}
		return NoInformationAvailable, nil
	}

	messages := buildMessages(question, history, contextBlock)
	req := &ai.GenerateRequest{
		System:          systemPrompt,
		Messages:        messages,
		Temperature:     s.temperature,
		MaxOutputTokens: s.maxOutputTokens,
	}

	var buffer strings.Builder
	streamErr := s.generator.GenerateStream(ctx, req, func(token string) error {
		buffer.WriteString(token)
		if isSeparatorToken(token) {
			// A separator row that arrives as one token is withheld
			// here; split separators are removed from the buffered
			// answer below.
			return nil
		}
		return fn(token)
	})
	if streamErr != nil {
		if errors.Is(streamErr, context.Canceled) || ctx.Err() != nil {
			return "", streamErr
		}
		logger.Error("answer generation failed", zap.Error(streamErr))
		errToken := "\n\n" + errorTokenPrefix + streamErr.Error()
		if err := fn(errToken); err != nil {
			return "", err
		}
		buffer.WriteString(errToken)
	}

	cleaned := StripTableSeparators(strings.TrimSpace(buffer.String()))
	return cleaned, nil
}

// buildMessages renders up to the last five remembered turns as real chat
// turns, then the grounded user prompt.
func buildMessages(question string, history []model.ChatMessage, contextBlock string) []model.ChatMessage {
	const maxTurns = 5
	start := 0
	if len(history) > maxTurns {
		start = len(history) - maxTurns
	}
	messages := make([]model.ChatMessage, 0, maxTurns+1)
	messages = append(messages, history[start:]...)
	messages = append(messages, model.ChatMessage{
		Role: model.RoleUser,
		Content: fmt.Sprintf(`QUESTION:
%s

DOCUMENT CONTEXT:
%s

INSTRUCTIONS:
1. Use only the document context.
2. Use bullet points for multiple facts or steps.
3. Use tables only for structured multi-item data.
4. Use direct "Field: Value" format for one-line answers.
5. Do not include separator rows with dashes (|---|---|).
6. Keep the answer concise, factual, and direct.

FINAL ANSWER:`, question, contextBlock),
	})
	return messages
}

// BuildSources reduces retrieved chunks to per-document provenance: one
// entry per distinct document, first chunk wins.
func BuildSources(chunks []model.Chunk) []model.Source {
	sources := make([]model.Source, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		if _, ok := seen[chunk.DocumentID]; ok {
			continue
		}
		seen[chunk.DocumentID] = struct{}{}
		sources = append(sources, model.Source{
			DocumentID: chunk.DocumentID,
			Filename:   chunk.Filename,
			ChunkIndex: chunk.ChunkIndex,
		})
	}
	return sources
}
