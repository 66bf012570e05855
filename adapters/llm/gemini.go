package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/domain/repositories"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.7
)

// GeminiConfig holds configuration for the Gemini tutor model.
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: generation model name (default: "gemini-2.5-flash")
// - Temperature: sampling temperature between 0 and 1 (default: 0.7)
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// ValidateGeminiConfig validates the GeminiConfig.
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}
	return nil
}

// NewGeminiConfigFromEnv reads the Gemini configuration from environment
// variables.
func NewGeminiConfigFromEnv() GeminiConfig {
	return GeminiConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
}

// GeminiTutor implements the TutorModel interface on Google's Gemini API.
// Model-issued set_reminder tool calls are routed into the dispatcher.
type GeminiTutor struct {
	client      *genai.Client
	logger      *zap.Logger
	model       string
	temperature float32
	dispatcher  repositories.ReminderDispatcher
}

var _ repositories.TutorModel = (*GeminiTutor)(nil)

// NewGeminiTutor creates a new Gemini-backed tutor model.
func NewGeminiTutor(ctx context.Context, config GeminiConfig, dispatcher repositories.ReminderDispatcher, logger *zap.Logger) (*GeminiTutor, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	return &GeminiTutor{
		client:      client,
		logger:      logger,
		model:       model,
		temperature: temperature,
		dispatcher:  dispatcher,
	}, nil
}

// StartSession opens a fresh chat context for the (profile, subject) pair.
func (g *GeminiTutor) StartSession(ctx context.Context, profile entities.UserProfile, subject entities.Subject) (repositories.ChatSession, error) {
	session := newGeminiSession(g, profile, subject)
	g.logger.Info("Chat session started",
		zap.String("student", profile.Name),
		zap.String("grade", profile.GradeLevel),
		zap.String("subject", string(subject)))
	return session, nil
}
