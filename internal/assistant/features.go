package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fr33kai/Fr3kAi/internal/document"
	"github.com/fr33kai/Fr3kAi/internal/memory"
	"github.com/fr33kai/Fr3kAi/internal/prompt"
)

// Feature is one of the six selectable modes.
type Feature string

const (
	FeatureBasic   Feature = "basic"
	FeatureRAG     Feature = "rag"
	FeatureCoT     Feature = "cot"
	FeatureVision  Feature = "vision"
	FeatureSearch  Feature = "search"
	FeatureImprove Feature = "improve"

	// FeatureFollowUp tags follow-up results. It is not a selectable mode.
	FeatureFollowUp Feature = "followup"
)

// Features lists the modes in selector order.
func Features() []Feature {
	return []Feature{FeatureBasic, FeatureRAG, FeatureCoT, FeatureVision, FeatureSearch, FeatureImprove}
}

// Title returns the display name of f.
func (f Feature) Title() string {
	switch f {
	case FeatureBasic:
		return "Basic Generation"
	case FeatureRAG:
		return "RAG"
	case FeatureCoT:
		return "Chain of Thought"
	case FeatureVision:
		return "Vision"
	case FeatureSearch:
		return "Web Search"
	case FeatureImprove:
		return "Self-Improvement"
	case FeatureFollowUp:
		return "Follow-up"
	}
	return string(f)
}

// ParseFeature accepts a mode id ("rag") or its display name ("Web Search").
func ParseFeature(s string) (Feature, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, f := range Features() {
		if norm == string(f) || norm == strings.ToLower(f.Title()) {
			return f, nil
		}
	}
	switch norm {
	case "chain-of-thought":
		return FeatureCoT, nil
	case "web", "web-search":
		return FeatureSearch, nil
	case "self-improve", "self_improvement", "improvement":
		return FeatureImprove, nil
	}
	return "", fmt.Errorf("unknown feature %q", s)
}

// Source selects where RAG context text comes from.
type Source string

const (
	SourceFile Source = "file"
	SourceURL  Source = "url"
)

// Input carries the per-invocation fields a handler may read.
type Input struct {
	Text     string // Basic Generation prompt
	Query    string // RAG and Web Search query
	Source   Source // RAG source; inferred from FilePath/URL when empty
	FilePath string // RAG document (.txt or .pdf)
	URL      string // RAG web page
}

// Output is one labelled piece of a handler's result.
type Output struct {
	Label string
	Text  string
}

// Result is what a successful (or partially successful) handler produced.
type Result struct {
	Feature Feature
	Outputs []Output
	// Notices are non-fatal problems, e.g. a skipped search result.
	Notices []string
	// Success is an optional confirmation line.
	Success string
}

func (r *Result) add(label, text string) {
	r.Outputs = append(r.Outputs, Output{Label: label, Text: text})
}

// Dispatch routes in to the handler for f.
func (s *Session) Dispatch(ctx context.Context, f Feature, in Input) (*Result, error) {
	switch f {
	case FeatureBasic:
		return s.Basic(ctx, in.Text)
	case FeatureRAG:
		return s.RAG(ctx, in)
	case FeatureSearch:
		return s.WebSearch(ctx, in.Query)
	case FeatureImprove:
		return s.SelfImprove(ctx)
	case FeatureCoT, FeatureVision:
		if err := s.checkReady(string(f)); err != nil {
			return nil, err
		}
		return nil, newError(KindUnsupported, string(f), f.Title()+" is not implemented yet.", nil)
	default:
		return nil, newError(KindUnsupported, string(f), fmt.Sprintf("unknown feature %q", f), nil)
	}
}

func (s *Session) checkReady(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready(op)
}

func (s *Session) logDone(op string, start time.Time, fields ...zap.Field) {
	fields = append(fields, zap.String("feature", op), zap.Duration("elapsed", time.Since(start)))
	s.logger.Info("feature complete", fields...)
}

// Basic answers text with the conversation and memory as context, then
// stores a memory summary under the raw prompt.
func (s *Session) Basic(ctx context.Context, text string) (*Result, error) {
	const op = "basic"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, newError(KindMissingInput, op, "Please enter a prompt.", nil)
	}
	start := time.Now()

	response, err := s.generate(ctx, op, prompt.Basic(s.history(), s.mem, text))
	if err != nil {
		return nil, err
	}
	res := &Result{Feature: FeatureBasic}
	res.add("Response", response)
	s.conv.AppendExchange(text, response)

	update, err := s.generate(ctx, op+".memory", prompt.BasicMemory(text, response))
	if err != nil {
		return res, err
	}
	if err := s.remember(op, text, memory.Text(update)); err != nil {
		return res, err
	}
	s.logDone(op, start)
	return res, nil
}

// RAG answers in.Query from an uploaded document or a fetched web page.
func (s *Session) RAG(ctx context.Context, in Input) (*Result, error) {
	const op = "rag"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, newError(KindMissingInput, op, "Please enter a query.", nil)
	}

	source := in.Source
	if source == "" {
		switch {
		case in.FilePath != "":
			source = SourceFile
		case in.URL != "":
			source = SourceURL
		}
	}

	var (
		sourceText string
		err        error
	)
	switch source {
	case SourceFile:
		if strings.TrimSpace(in.FilePath) == "" {
			return nil, newError(KindMissingInput, op, "Please upload a document.", nil)
		}
		if !document.Supported(in.FilePath) {
			return nil, newError(KindMissingInput, op, "Please upload a .txt or .pdf document.", document.ErrUnsupported)
		}
		sourceText, err = s.opts.Documents.ReadText(ctx, in.FilePath)
		if err != nil {
			return nil, newError(KindFetch, op+".document", "Failed to read the document.", err)
		}
	case SourceURL:
		if strings.TrimSpace(in.URL) == "" {
			return nil, newError(KindMissingInput, op, "Please enter a webpage URL.", nil)
		}
		sourceText, err = s.opts.Fetcher.FetchText(ctx, in.URL)
		if err != nil {
			return nil, newError(KindFetch, op+".fetch", "Failed to fetch web content. Please check the URL.", err)
		}
	default:
		return nil, newError(KindMissingInput, op, "Please choose a document or a webpage URL as the source.", nil)
	}
	if strings.TrimSpace(sourceText) == "" {
		return nil, newError(KindFetch, op, "The selected source contains no text.", nil)
	}
	start := time.Now()

	response, err := s.generate(ctx, op, prompt.RAG(sourceText, in.Query))
	if err != nil {
		return nil, err
	}
	res := &Result{Feature: FeatureRAG}
	res.add("RAG Response", response)
	s.conv.AppendExchange("RAG Query: "+in.Query, response)

	update, err := s.generate(ctx, op+".memory", prompt.RAGMemory(in.Query, response))
	if err != nil {
		return res, err
	}
	if err := s.remember(op, "RAG: "+in.Query, memory.Text(update)); err != nil {
		return res, err
	}
	s.logDone(op, start, zap.String("source", string(source)), zap.Int("source_chars", len(sourceText)))
	return res, nil
}

// maxAnalyzedResults is how many search results are fetched and analyzed.
const maxAnalyzedResults = 3

// WebSearch searches for query, analyzes each of the first three results
// independently and stores a memory summary of the combined analysis.
func (s *Session) WebSearch(ctx context.Context, query string) (*Result, error) {
	const op = "search"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, newError(KindMissingInput, op, "Please enter a search query.", nil)
	}
	start := time.Now()

	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, newError(KindFetch, op, "Error during Web Search", err)
	}
	if len(results) > maxAnalyzedResults {
		results = results[:maxAnalyzedResults]
	}

	res := &Result{Feature: FeatureSearch}
	var analyses []string
	for _, r := range results {
		content, err := s.opts.Fetcher.FetchText(ctx, r.URL)
		if err != nil {
			s.logger.Debug("search result skipped", zap.String("url", r.URL), zap.Error(err))
			res.Notices = append(res.Notices, fmt.Sprintf("Failed to fetch web content: %v", err))
			continue
		}
		if strings.TrimSpace(content) == "" {
			res.Notices = append(res.Notices, fmt.Sprintf("No content at %s", r.URL))
			continue
		}
		analysis, err := s.generate(ctx, op+".analyze", prompt.WebAnalysis(query, content))
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}
	if len(analyses) == 0 {
		msg := "No search results could be fetched."
		if len(results) == 0 {
			msg = "The search returned no results."
		}
		return &Result{Feature: FeatureSearch, Notices: res.Notices}, newError(KindFetch, op, msg, nil)
	}

	analysis := prompt.JoinAnalyses(analyses)
	res.add("Web Search Analysis", analysis)
	s.conv.AppendExchange("Web Search: "+query, analysis)

	update, err := s.generate(ctx, op+".memory", prompt.WebSearchMemory(query, analysis))
	if err != nil {
		return res, err
	}
	if err := s.remember(op, "Web Search: "+query, memory.Text(update)); err != nil {
		return res, err
	}
	s.logDone(op, start, zap.Int("results", len(results)), zap.Int("analyzed", len(analyses)))
	return res, nil
}

// Memory keys written by SelfImprove.
const (
	KeySelfImprovement   = "self_improvement"
	KeyUpdatedBasePrompt = "updated_base_prompt"
	FieldLastAnalysis    = "last_analysis"
	FieldActionItems     = "action_items"
)

// SelfImprove runs three chained generation calls: a self-analysis of the
// conversation and memory, action items derived from it, and a revised base
// prompt derived from those. The conversation is not modified.
func (s *Session) SelfImprove(ctx context.Context) (*Result, error) {
	const op = "improve"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(op); err != nil {
		return nil, err
	}
	start := time.Now()
	res := &Result{Feature: FeatureImprove}

	analysis, err := s.generate(ctx, op+".analysis", prompt.SelfAnalysis(s.history(), s.mem))
	if err != nil {
		return nil, err
	}
	res.add("Self-Improvement Analysis", analysis)

	items, err := s.generate(ctx, op+".actions", prompt.ActionItems(analysis))
	if err != nil {
		return res, err
	}
	res.add("Action Items for Improvement", items)
	if err := s.remember(op, KeySelfImprovement, memory.Record(map[string]string{
		FieldLastAnalysis: analysis,
		FieldActionItems:  items,
	})); err != nil {
		return res, err
	}

	basePrompt, err := s.generate(ctx, op+".base_prompt", prompt.BasePromptUpdate(items))
	if err != nil {
		return res, err
	}
	res.add("Updated Base Prompt", basePrompt)
	if err := s.remember(op, KeyUpdatedBasePrompt, memory.Text(basePrompt)); err != nil {
		return res, err
	}
	res.Success = "Self-improvement analysis complete and base prompt updated!"
	s.logDone(op, start)
	return res, nil
}

// FollowUp answers question with the full transcript as context. It appends
// both turns and never touches memory.
func (s *Session) FollowUp(ctx context.Context, question string) (*Result, error) {
	const op = "followup"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, newError(KindMissingInput, op, "Please enter a follow-up question.", nil)
	}
	if s.conv.Len() == 0 {
		return nil, newError(KindMissingInput, op, "There is no conversation to follow up on yet.", nil)
	}
	start := time.Now()

	response, err := s.generate(ctx, op, prompt.FollowUp(s.conv.All(), question))
	if err != nil {
		return nil, err
	}
	s.conv.AppendExchange(question, response)
	s.logDone(op, start)
	return &Result{Feature: FeatureFollowUp, Outputs: []Output{{Label: "Follow-up Response", Text: response}}}, nil
}

// IsPartial reports whether res carries output even though err is non-nil,
// i.e. the primary call succeeded and a later step failed.
func IsPartial(res *Result, err error) bool {
	return err != nil && res != nil && len(res.Outputs) > 0
}
