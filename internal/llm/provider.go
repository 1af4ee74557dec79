// Package llm adapts the model clients in pkg/ to a single text-in,
// text-out Provider and rotates across an ordered roster of them.
package llm

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/pkg/anthropic"
	"github.com/sells-group/stablecoin-intel/pkg/gemini"
	"github.com/sells-group/stablecoin-intel/pkg/openai"
)

const defaultMaxTokens = 2048

// Request is one structuring call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// Task labels the call in usage logs, e.g. "company" or "jobs".
	Task string
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

// Provider returns a single text blob for a prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

var temperature = 0.1

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropic adapts an Anthropic client bound to model.
func NewAnthropic(client anthropic.Client, model string) Provider {
	return &anthropicProvider{client: client, model: model}
}

func (p *anthropicProvider) Name() string { return "anthropic/" + p.model }

func (p *anthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	mr := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   int64(req.maxTokens()),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temperature,
	}
	if req.System != "" {
		mr.System = anthropic.CachedSystem(req.System)
	}
	resp, err := p.client.CreateMessage(ctx, mr)
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic")
	}
	resp.Usage.LogCost(p.model, req.Task)
	return nonEmpty(resp.Text(), p.Name())
}

type openaiProvider struct {
	client openai.Client
	model  string
	label  string
}

// NewOpenAI adapts an OpenAI-compatible client bound to model. label names
// the endpoint in logs ("openai", "perplexity").
func NewOpenAI(client openai.Client, label, model string) Provider {
	return &openaiProvider{client: client, model: model, label: label}
}

func (p *openaiProvider) Name() string { return p.label + "/" + p.model }

func (p *openaiProvider) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.maxTokens()
	var msgs []openai.Message
	if req.System != "" {
		msgs = append(msgs, openai.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, openai.Message{Role: "user", Content: req.Prompt})

	resp, err := p.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", eris.Wrapf(err, "llm: %s", p.label)
	}
	zap.L().Debug("llm: usage",
		zap.String("provider", p.Name()),
		zap.String("task", req.Task),
		zap.Int("input_tokens", resp.Usage.PromptTokens),
		zap.Int("output_tokens", resp.Usage.CompletionTokens),
	)
	return nonEmpty(resp.Text(), p.Name())
}

type geminiProvider struct {
	client gemini.Client
	model  string
}

// NewGemini adapts a Gemini client bound to model.
func NewGemini(client gemini.Client, model string) Provider {
	return &geminiProvider{client: client, model: model}
}

func (p *geminiProvider) Name() string { return "gemini/" + p.model }

func (p *geminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	temp := float32(temperature)
	resp, err := p.client.Generate(ctx, gemini.GenerateRequest{
		Model:       p.model,
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: &temp,
		MaxTokens:   int32(req.maxTokens()),
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: gemini")
	}
	zap.L().Debug("llm: usage",
		zap.String("provider", p.Name()),
		zap.String("task", req.Task),
		zap.Int32("input_tokens", resp.PromptTokens),
		zap.Int32("output_tokens", resp.OutputTokens),
	)
	return nonEmpty(resp.Text, p.Name())
}

func nonEmpty(text, name string) (string, error) {
	if text == "" {
		return "", eris.New(fmt.Sprintf("llm: %s returned no text", name))
	}
	return text, nil
}
