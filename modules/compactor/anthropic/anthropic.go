// Package anthropic implements the compactor.anthropic module: a
// compaction summarizer that condenses older session messages into a
// running context string via the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/recall/internal/compact"
	"github.com/flemzord/recall/internal/core"
	"github.com/flemzord/recall/pkg/session"
)

func init() {
	core.RegisterModule(&Module{})
}

// Interface guards.
var (
	_ core.Module        = (*Module)(nil)
	_ core.Configurable  = (*Module)(nil)
	_ core.Provisioner   = (*Module)(nil)
	_ core.Validator     = (*Module)(nil)
	_ compact.Summarizer = (*Module)(nil)
)

const summarySystemPrompt = "You maintain a running summary of a conversation. " +
	"You are given the current summary (possibly empty) and a batch of older " +
	"messages that are about to be discarded. Produce an updated summary that " +
	"preserves every fact, decision, and open question a future reader would " +
	"need. Reply with the summary text only."

// Module is the compactor.anthropic module. It implements
// compact.Summarizer and registers itself under "compactor.summarizer"
// for the memory service to pick up.
type Module struct {
	config Config
	client *sdkanthropic.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "compactor.anthropic",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("compactor.anthropic: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	// Resolve API key: config takes precedence over environment variable.
	apiKey := m.config.APIKey
	if apiKey == "" {
		if envKey, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			apiKey = envKey
		}
	}

	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if m.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(m.config.BaseURL))
	}
	opts = append(opts, option.WithMaxRetries(m.config.MaxRetries))

	client := sdkanthropic.NewClient(opts...)
	m.client = &client

	ctx.RegisterService("compactor.summarizer", m)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.config.Model == "" {
		return errors.New("compactor.anthropic: model must not be empty")
	}
	if m.client == nil {
		return errors.New("compactor.anthropic: client not initialized (Provision not called)")
	}
	return nil
}

// Summarize implements compact.Summarizer. Messages arrive newest first;
// the prompt presents them chronologically.
func (m *Module) Summarize(ctx context.Context, prior string, msgs []session.Message) (string, error) {
	if len(msgs) == 0 {
		return prior, nil
	}

	resp, err := m.client.Messages.New(ctx, sdkanthropic.MessageNewParams{
		Model:     sdkanthropic.Model(m.config.Model),
		MaxTokens: int64(m.config.MaxTokens),
		System: []sdkanthropic.TextBlockParam{
			{Text: summarySystemPrompt},
		},
		Messages: []sdkanthropic.MessageParam{
			sdkanthropic.NewUserMessage(
				sdkanthropic.NewTextBlock(buildPrompt(prior, msgs)),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("compactor.anthropic: summarize: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	summary := strings.TrimSpace(b.String())
	if summary == "" {
		return "", errors.New("compactor.anthropic: model returned an empty summary")
	}

	m.logger.Debug("summary produced", "messages", len(msgs), "chars", len(summary))
	return summary, nil
}

// buildPrompt renders the prior summary and the discarded messages
// (oldest first) into the user turn.
func buildPrompt(prior string, msgs []session.Message) string {
	var b strings.Builder

	b.WriteString("Current summary:\n")
	if prior == "" {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(prior)
		b.WriteByte('\n')
	}

	b.WriteString("\nMessages to fold in, oldest first:\n")
	for i := len(msgs) - 1; i >= 0; i-- {
		b.WriteString(msgs[i].Role)
		b.WriteString(": ")
		b.WriteString(msgs[i].Content)
		b.WriteByte('\n')
	}
	return b.String()
}
