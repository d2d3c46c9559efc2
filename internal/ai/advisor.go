package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cropsense/internal/types"
)

const chatSystemPrompt = "You are an expert agricultural AI advisor. Provide concise, helpful advice about crops, farming, and agriculture."

const recommendSystemPrompt = "You are an agricultural expert. Respond with ONLY a valid JSON array of crop recommendations. No markdown formatting, no explanations."

// Advisor answers chat questions and produces crop recommendations through
// the probed model, degrading to canned replies and static tables on any
// failure. Neither method ever returns an error.
type Advisor struct {
	client      *ChatClient
	probe       *ModelProbe
	chatTimeout time.Duration
	logger      *slog.Logger
}

// NewAdvisor creates an Advisor over a shared client and probe.
func NewAdvisor(client *ChatClient, probe *ModelProbe, chatTimeout time.Duration, logger *slog.Logger) *Advisor {
	if chatTimeout <= 0 {
		chatTimeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		client:      client,
		probe:       probe,
		chatTimeout: chatTimeout,
		logger:      logger,
	}
}

// Probe exposes the advisor's probe for status reporting.
func (a *Advisor) Probe() *ModelProbe { return a.probe }

// Chat answers a free-form question. With no working model, or on any model
// failure, the canned keyword-matched reply is returned instead.
func (a *Advisor) Chat(ctx context.Context, question string) string {
	if !a.probe.EnsureProbed(ctx) {
		return FallbackChat(question)
	}

	chatCtx, cancel := context.WithTimeout(ctx, a.chatTimeout)
	defer cancel()

	temp := 0.7
	reply, err := a.client.Complete(chatCtx, a.probe.Model(), []Message{
		{Role: RoleSystem, Content: chatSystemPrompt},
		{Role: RoleUser, Content: question},
	}, CompletionOpts{Temperature: &temp, MaxTokens: 1024})
	if err != nil {
		a.logger.WarnContext(ctx, "ai chat failed, using fallback reply", "error", err)
		return FallbackChat(question)
	}
	if reply == "" {
		return FallbackChat(question)
	}
	return reply
}

// Recommend asks the model for exactly five crops for the point and climate
// zone, extracting the array from whatever text comes back. Weather is
// optional context for the prompt. Any failure, including unparsable output,
// yields the static table for the zone.
func (a *Advisor) Recommend(ctx context.Context, lat, lon float64, zone types.ClimateZone, weather *types.WeatherRecord) []types.CropRecommendation {
	if !a.probe.EnsureProbed(ctx) {
		return DefaultCrops(zone)
	}

	chatCtx, cancel := context.WithTimeout(ctx, a.chatTimeout)
	defer cancel()

	temp := 0.7
	reply, err := a.client.Complete(chatCtx, a.probe.Model(), []Message{
		{Role: RoleSystem, Content: recommendSystemPrompt},
		{Role: RoleUser, Content: recommendPrompt(lat, lon, zone, weather)},
	}, CompletionOpts{Temperature: &temp, MaxTokens: 1500})
	if err != nil {
		a.logger.WarnContext(ctx, "ai recommendation failed, using static table",
			"zone", zone,
			"error", err,
		)
		return DefaultCrops(zone)
	}

	recs, ok := ExtractRecommendations(reply)
	if !ok {
		a.logger.WarnContext(ctx, "ai reply contained no parsable recommendation array, using static table",
			"zone", zone,
		)
		return DefaultCrops(zone)
	}
	return recs
}

func recommendPrompt(lat, lon float64, zone types.ClimateZone, weather *types.WeatherRecord) string {
	weatherInfo := ""
	if weather != nil {
		weatherInfo = fmt.Sprintf("Temperature: %.1fC, Humidity: %.0f%%, Rainfall: %.1fmm\n",
			weather.Temperature, weather.Humidity, weather.Precipitation)
	}

	return fmt.Sprintf(`As an agricultural expert, recommend exactly 5 crops suitable for:
Location: %.2f, %.2f
Climate Zone: %s
%s
Respond with ONLY a JSON array (no markdown, no explanation):
[{"name":"Rice","scientificName":"Oryza sativa","suitability":95,"reason":"Perfect for warm humid climate with high rainfall"}]`,
		lat, lon, zone, weatherInfo)
}
