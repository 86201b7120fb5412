package ai

import (
	"context"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/quietgrove/intently/internal/apperr"
	"github.com/quietgrove/intently/internal/logger"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default model to use
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the transport-level timeout for API calls. There is
	// no caller-side timeout beyond this.
	DefaultTimeout = 30 * time.Second
)

// OpenAIClient implements Completer against an OpenAI-compatible endpoint
type OpenAIClient struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIClient creates a new OpenAI-backed completer
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	return NewOpenAIClientWithLogger(apiKey, baseURL, model, nil, false)
}

// NewOpenAIClientWithLogger creates a completer that logs request/response
// previews in debug mode
func NewOpenAIClientWithLogger(apiKey, baseURL, model string, log *zap.Logger, debugMode bool) *OpenAIClient {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIClient{
		client:    client,
		model:     model,
		logger:    log,
		debugMode: debugMode,
	}
}

// Complete issues a single chat completion. A non-success response is a
// transport failure; a forced tool without a tool call in the answer is a
// malformed response. It never retries.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Result, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}

	if req.Tool != nil {
		params.Tools = []openai.ChatCompletionToolUnionParam{
			openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
				Name:        req.Tool.Name,
				Description: openai.String(req.Tool.Description),
				Parameters:  shared.FunctionParameters(req.Tool.Parameters),
			}),
		}
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: req.Tool.Name,
				},
			},
		}
	}

	if c.logger != nil && c.debugMode {
		c.logger.Debug("llm_api_request",
			zap.String("model", c.model),
			zap.Int("prompt_length", len(req.User)),
			zap.Bool("tool_forced", req.Tool != nil),
			zap.String("prompt_preview", logger.SanitizeDebugContent(req.User)),
		)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		if c.logger != nil && c.debugMode {
			c.logger.Debug("llm_api_error",
				zap.String("model", c.model),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}
		return nil, apperr.Transport(err)
	}

	if len(resp.Choices) == 0 {
		return nil, apperr.Malformedf("no choices in response")
	}

	msg := resp.Choices[0].Message

	if req.Tool != nil {
		if len(msg.ToolCalls) == 0 {
			return nil, apperr.Malformedf("no tool call in response")
		}
		args := msg.ToolCalls[0].Function.Arguments
		if c.logger != nil && c.debugMode {
			c.logger.Debug("llm_api_response",
				zap.String("model", c.model),
				zap.Int("response_length", len(args)),
				zap.String("response_preview", logger.SanitizeDebugContent(args)),
				zap.Duration("latency", latency),
			)
		}
		return &Result{Arguments: args}, nil
	}

	content := msg.Content
	if c.logger != nil && c.debugMode {
		c.logger.Debug("llm_api_response",
			zap.String("model", c.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logger.SanitizeDebugContent(content)),
			zap.Duration("latency", latency),
		)
	}

	return &Result{Text: content}, nil
}
