package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the question to answer from the transcripts"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"transcripts to index and search; omit to search every indexed transcript"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations"`
	Skipped   []SkippedOutput  `json:"skipped,omitempty"`
}

// CitationOutput is one source cited by an answer.
type CitationOutput struct {
	Label    string          `json:"label"`
	Found    bool            `json:"found"`
	Passages []PassageOutput `json:"passages,omitempty"`
}

// SkippedOutput is a selected transcript that could not be indexed.
type SkippedOutput struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question    string   `json:"question" jsonschema:"the question to find passages for"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these transcripts"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	Source     string   `json:"source"`
	DocumentID string   `json:"document_id"`
	Score      float64  `json:"score"`
	Content    string   `json:"content"`
	Captions   []string `json:"captions,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from audio transcripts. The named transcripts are " +
			"indexed first; the answer cites transcripts by name in square brackets.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the transcript passages most relevant to a question, without an answer",
	}, s.handleRetrieve)
}

// handleAsk runs a one-shot chat session for the question.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, ErrEmptyQuestion
	}

	session, err := s.ports.Chat.StartSession(ctx, input.DocumentIDs, nil)
	if session != nil {
		defer session.Close()
	}
	if err != nil {
		return nil, AskOutput{}, err
	}

	msg, err := session.Ask(ctx, question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    strings.TrimSpace(msg.Content),
		Citations: make([]CitationOutput, 0, len(msg.Citations)),
	}
	for _, c := range msg.Sources() {
		output.Citations = append(output.Citations, CitationOutput{
			Label:    c.Label,
			Found:    c.Found(),
			Passages: toPassageOutputs(c.Passages),
		})
	}
	for _, job := range session.Jobs() {
		if job.State == domain.JobFailed {
			output.Skipped = append(output.Skipped, SkippedOutput{DocumentID: job.DocumentID, Reason: job.Reason})
		}
	}
	logger.Debug("mcp ask: %d citation(s), %d skipped", len(output.Citations), len(output.Skipped))

	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, RetrieveOutput{}, ErrEmptyQuestion
	}

	passages, err := s.ports.Retrieval.RetrieveFrom(ctx, question, input.DocumentIDs)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Passages: toPassageOutputs(passages),
		Count:    len(passages),
	}
	if output.Passages == nil {
		output.Passages = []PassageOutput{}
	}
	return nil, output, nil
}

func toPassageOutputs(passages []domain.RetrievedPassage) []PassageOutput {
	if len(passages) == 0 {
		return nil
	}
	out := make([]PassageOutput, len(passages))
	for i, p := range passages {
		out[i] = PassageOutput{
			Source:     p.SourceName,
			DocumentID: p.DocumentID,
			Score:      p.Score,
			Content:    p.Content,
			Captions:   p.Captions,
		}
	}
	return out
}
