package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/adapters/llm"
	"github.com/xuanvuong/mochi/server/adapters/profile"
	"github.com/xuanvuong/mochi/server/adapters/stt"
	"github.com/xuanvuong/mochi/server/adapters/tts"
	"github.com/xuanvuong/mochi/server/domain/repositories"
	"github.com/xuanvuong/mochi/server/internal/api"
	"github.com/xuanvuong/mochi/server/internal/audio"
	"github.com/xuanvuong/mochi/server/internal/scheduler"
	"github.com/xuanvuong/mochi/server/internal/state"
	"github.com/xuanvuong/mochi/server/internal/websocket"
	"github.com/xuanvuong/mochi/server/usecase"
)

// reminderRelay breaks the construction cycle between the tutor model and the
// conversation service: the model is built first with the relay, the service
// is bound afterwards.
type reminderRelay struct {
	mu     sync.Mutex
	target repositories.ReminderDispatcher
}

func (r *reminderRelay) Bind(target repositories.ReminderDispatcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

func (r *reminderRelay) SetReminder(delay time.Duration, label string) int64 {
	r.mu.Lock()
	target := r.target
	r.mu.Unlock()
	if target == nil {
		return 0
	}
	return target.SetReminder(delay, label)
}

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tutor model, with an offline mock when no API key is configured.
	relay := &reminderRelay{}
	var model repositories.TutorModel
	llmConfig := llm.NewGeminiConfigFromEnv()
	if llmConfig.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using mock tutor model")
		model = llm.NewMockTutorModel(relay)
	} else {
		tutor, err := llm.NewGeminiTutor(ctx, llmConfig, relay, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini tutor", zap.Error(err))
		}
		model = tutor
	}

	// Speech synthesis prefers Gemini, falls back to ElevenLabs, and degrades
	// to text-only when neither is configured.
	var speech repositories.TextToSpeech
	if ttsConfig := tts.NewGeminiSpeechConfigFromEnv(); ttsConfig.APIKey != "" {
		gs, err := tts.NewGeminiSpeech(ctx, ttsConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini speech", zap.Error(err))
		}
		speech = gs
	} else if elConfig := tts.NewElevenLabsConfigFromEnv(); elConfig.APIKey != "" {
		el, err := tts.NewElevenLabsTTS(elConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize ElevenLabs", zap.Error(err))
		}
		speech = el
	} else {
		logger.Warn("No TTS credentials set, replies will be text-only")
		speech = tts.NewNullSpeech(logger)
	}

	// Speech recognition, mocked without Google credentials.
	var recognizer repositories.SpeechToText
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		recognizer = stt.NewGoogleSpeechToText(logger)
	} else {
		logger.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, using mock speech recognition")
		recognizer = stt.NewMockSpeechToText(logger)
	}

	// Audio output. Headless environments fall back to a paced null sink.
	var output repositories.AudioOutput = audio.NewSpeaker(logger)
	if err := output.Resume(); err != nil {
		logger.Warn("Audio device unavailable, using null output", zap.Error(err))
		output.Close()
		output = audio.NewNullOutput(logger)
	}
	defer output.Close()

	stateStore := state.New(logger)
	sched := scheduler.New(clock.New(), logger)
	defer sched.Shutdown()
	pipeline := audio.NewPipeline(output, stateStore, logger)
	profiles := profile.NewFileStore(os.Getenv("MOCHI_PROFILE_PATH"), logger)

	service := usecase.NewTutorService(model, speech, pipeline, sched, stateStore, profiles, logger)
	relay.Bind(service)
	go service.Run(ctx)

	hub := websocket.NewHub(service, recognizer, stateStore, logger)
	go hub.Run(ctx)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, hub, service, stateStore, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Mochi server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
