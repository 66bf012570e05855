// Package tts converts finalized reply text into 24 kHz mono 16-bit PCM.
package tts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

const (
	defaultSpeechModel = "gemini-2.5-flash-preview-tts"
	defaultVoiceName   = "Zephyr"
)

// GeminiSpeechConfig holds configuration for the Gemini speech adapter.
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: speech model name (default: "gemini-2.5-flash-preview-tts")
// - VoiceName: prebuilt voice (default: "Zephyr")
type GeminiSpeechConfig struct {
	APIKey    string
	Model     string
	VoiceName string
}

// NewGeminiSpeechConfigFromEnv reads the speech configuration from
// environment variables.
func NewGeminiSpeechConfigFromEnv() GeminiSpeechConfig {
	return GeminiSpeechConfig{
		APIKey:    os.Getenv("GEMINI_API_KEY"),
		Model:     os.Getenv("GEMINI_TTS_MODEL"),
		VoiceName: os.Getenv("GEMINI_TTS_VOICE"),
	}
}

// GeminiSpeech synthesizes speech through the Gemini speech models. Synthesis
// failures are logged and reported as unavailable (nil bytes), never as hard
// errors: the reply degrades to text only.
type GeminiSpeech struct {
	client *genai.Client
	logger *zap.Logger
	model  string
	voice  string
}

var _ repositories.TextToSpeech = (*GeminiSpeech)(nil)

// NewGeminiSpeech creates a new Gemini speech synthesizer.
func NewGeminiSpeech(ctx context.Context, config GeminiSpeechConfig, logger *zap.Logger) (*GeminiSpeech, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google AI API key is required")
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
		model = defaultSpeechModel
	}
	voice := config.VoiceName
	if voice == "" {
		voice = defaultVoiceName
	}

	return &GeminiSpeech{client: client, logger: logger, model: model, voice: voice}, nil
}

// Synthesize converts text into 24 kHz mono s16le PCM. A (nil, nil) result
// means synthesis is unavailable.
func (g *GeminiSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.Error("Speech synthesis failed", zap.Error(err))
		return nil, nil
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		g.logger.Warn("Speech synthesis returned no candidates")
		return nil, nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			g.logger.Info("Speech synthesized",
				zap.Int("bytes", len(part.InlineData.Data)),
				zap.String("mime", part.InlineData.MIMEType))
			return part.InlineData.Data, nil
		}
	}

	g.logger.Warn("Speech synthesis returned no audio part")
	return nil, nil
}
