package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// Sentinel errors for loop termination. Callers distinguish a stop request
// and an exhausted iteration budget from transport failures.
var (
	// ErrStopSignal indicates a stop signal was already pending when the
	// attempt started. A running attempt is never interrupted; stop requests
	// arriving mid-attempt take effect before the next attempt.
	ErrStopSignal = errors.New("stop signal received")
	// ErrMaxIterations indicates the loop hit its iteration budget before
	// the model ended its turn.
	ErrMaxIterations = errors.New("max iterations reached")
)

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolExecutor executes tool calls requested by the model.
// The browser package provides the implementation used for navigation.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) ToolResult
}

// StreamEvent represents an event during agent execution for progress output.
type StreamEvent struct {
	Type    string // "text", "tool_use", "tool_result", "done", "error"
	Content string
	Tool    string
	Input   json.RawMessage
}

// LoopResult contains the results of an agent loop execution.
type LoopResult struct {
	// Output is the model's final text output.
	Output string
	// TokensIn and TokensOut are the accumulated token counts.
	TokensIn  int64
	TokensOut int64
	// ToolCalls is the number of tool invocations executed.
	ToolCalls int
	// Iterations is the number of API calls made.
	Iterations int
	// Stopped is true if the loop ended due to a stop signal.
	Stopped bool
}

// AgentLoopConfig contains configuration for the agent loop.
type AgentLoopConfig struct {
	Client        *Client
	Executor      ToolExecutor
	Tools         []anthropic.ToolUnionParam
	Notifications *NotificationManager
	// MaxIterations caps API calls per Run (0 means the default of 40).
	MaxIterations int
	// MaxTokens caps output tokens per API call (0 means 8192).
	MaxTokens int64
}

// AgentLoop manages the API call and tool execution cycle for one attempt.
type AgentLoop struct {
	client        *Client
	executor      ToolExecutor
	tools         []anthropic.ToolUnionParam
	notifications *NotificationManager
	onStream      func(StreamEvent)
	maxIterations int
	maxTokens     int64

	// createMessage is swappable for tests.
	createMessage func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// NewAgentLoop creates a new agent loop with the given configuration.
func NewAgentLoop(cfg AgentLoopConfig) *AgentLoop {
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = 40
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	l := &AgentLoop{
		client:        cfg.Client,
		executor:      cfg.Executor,
		tools:         cfg.Tools,
		notifications: cfg.Notifications,
		maxIterations: maxIter,
		maxTokens:     maxTokens,
	}
	l.createMessage = func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
		return l.client.sdk().Messages.New(ctx, params)
	}
	return l
}

// SetStreamHandler sets a callback for streaming events during execution.
func (l *AgentLoop) SetStreamHandler(fn func(StreamEvent)) {
	l.onStream = fn
}

// emit sends a stream event if a handler is configured.
func (l *AgentLoop) emit(event StreamEvent) {
	if l.onStream != nil {
		l.onStream(event)
	}
}

// Run executes the agent loop with the given prompts. It returns the partial
// LoopResult alongside any error so callers can salvage what was done.
//
// A pending stop signal is honored only here, before the first API call.
// Once the loop is running the attempt is carried to completion; the
// orchestrator consults the stop signal again between attempts.
func (l *AgentLoop) Run(ctx context.Context, systemPrompt, userPrompt string) (*LoopResult, error) {
	result := &LoopResult{}

	if l.notifications != nil && l.notifications.ShouldStop() {
		result.Stopped = true
		return result, ErrStopSignal
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}

	for result.Iterations < l.maxIterations {
		result.Iterations++

		resp, err := l.createMessage(ctx, anthropic.MessageNewParams{
			Model:     l.client.Model(),
			MaxTokens: l.maxTokens,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: messages,
			Tools:    l.tools,
		})
		if err != nil {
			l.emit(StreamEvent{Type: "error", Content: err.Error()})
			return result, fmt.Errorf("API call failed: %w", err)
		}

		result.TokensIn += resp.Usage.InputTokens
		result.TokensOut += resp.Usage.OutputTokens
		l.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				l.emit(StreamEvent{Type: "text", Content: variant.Text})
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				result.ToolCalls++

				l.emit(StreamEvent{Type: "tool_use", Tool: variant.Name, Input: variant.Input})
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				toolResult := l.executor.Execute(ctx, variant.Name, variant.Input)
				l.emit(StreamEvent{
					Type:    "tool_result",
					Tool:    variant.Name,
					Content: truncateForDisplay(toolResult.Content),
				})

				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, toolResult.Content, toolResult.IsError))
			}
		}

		if resp.StopReason == anthropic.StopReasonEndTurn {
			result.Output = textOutput
			l.emit(StreamEvent{Type: "done"})
			return result, nil
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		if len(toolResultBlocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
		}
	}

	return result, fmt.Errorf("%w (%d)", ErrMaxIterations, l.maxIterations)
}

func truncateForDisplay(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
