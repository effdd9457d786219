// Package llm asks a chat model for an itinerary document in JSON mode.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/provider/resilience"
)

const (
	// ProducerName identifies this producer.
	ProducerName = "llm"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
)

const systemPrompt = `You are a travel planner. Reply with a single JSON object and nothing else.
The object has these fields:
destination (string), duration (integer days), totalBudget (number),
dailyItinerary (array of {day, date, dailyBudget, activities: [{time, activity, location, cost, description, category}]}),
accommodations (array of {name, type, pricePerNight, rating, location, amenities, description}),
transportation (array of {type, from, to, cost, duration, description}),
budgetBreakdown ({accommodation, transportation, activities, food, miscellaneous}),
tips (array of strings).
category is one of sightseeing, food, entertainment, culture, nature, shopping.
Accommodation type is one of hotel, hostel, airbnb, resort, guesthouse.
Transportation type is one of flight, train, bus, car_rental, taxi, metro, ferry.
All amounts are plain numbers in the traveller's currency.`

// OpenAIConfig configures an OpenAI-compatible chat model.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string

	// HTTPClient routes model calls through the resilient client when set.
	HTTPClient *resilience.Client
}

// NewOpenAIModel builds a langchaingo model for an OpenAI-compatible endpoint.
func NewOpenAIModel(cfg OpenAIConfig) (llms.Model, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	opts := []openai.Option{
		openai.WithModel(model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, openai.WithHTTPClient(cfg.HTTPClient))
	}
	return openai.New(opts...)
}

// ClientConfig holds configuration for the LLM producer.
type ClientConfig struct {
	Model       llms.Model
	Temperature float64
	MaxTokens   int
	Logger      zerolog.Logger
}

// Client generates itineraries with a chat model.
type Client struct {
	model       llms.Model
	temperature float64
	maxTokens   int
	logger      zerolog.Logger
}

// NewClient creates a new LLM producer.
func NewClient(cfg ClientConfig) *Client {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      cfg.Logger,
	}
}

// Name returns the producer name.
func (c *Client) Name() string {
	return ProducerName
}

// Generate prompts the model and returns its JSON answer.
func (c *Client) Generate(ctx context.Context, prefs *generator.Preferences) ([]byte, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, Prompt(prefs)),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithJSONMode(),
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || resilience.IsTimeout(err) {
			return nil, fmt.Errorf("%w: model call timed out", itinerary.ErrUpstreamTimeout)
		}
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("%w: %w", itinerary.ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("%w: model call failed: %v", itinerary.ErrUpstreamUnavailable, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: model returned no choices", itinerary.ErrMalformedUpstreamResponse)
	}
	content := stripCodeFence(resp.Choices[0].Content)
	if content == "" {
		return nil, fmt.Errorf("%w: model returned empty content", itinerary.ErrMalformedUpstreamResponse)
	}

	c.logger.Debug().Int("bytes", len(content)).Str("stop_reason", resp.Choices[0].StopReason).Msg("model responded")
	return []byte(content), nil
}

// Prompt renders the traveller's preferences as the user message.
func Prompt(prefs *generator.Preferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a %d-day trip to %s.\n", prefs.Duration, prefs.Destination)
	fmt.Fprintf(&b, "Total budget: %.2f.\n", prefs.Budget)
	if prefs.StartLocation != "" {
		fmt.Fprintf(&b, "Travelling from: %s.\n", prefs.StartLocation)
	}
	if prefs.TravelStyle != "" {
		fmt.Fprintf(&b, "Travel style: %s.\n", prefs.TravelStyle)
	}
	if len(prefs.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s.\n", strings.Join(prefs.Interests, ", "))
	}
	b.WriteString("Give one entry per day in dailyItinerary, numbered from 1.")
	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
