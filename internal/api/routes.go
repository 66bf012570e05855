package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/internal/state"
	"github.com/xuanvuong/mochi/server/internal/websocket"
	"github.com/xuanvuong/mochi/server/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	service *usecase.TutorService,
	stateStore *state.Store,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "mochi-server",
		})
	})

	v1 := e.Group("/api/v1")

	v1.GET("/profile", func(c echo.Context) error {
		return getProfile(c, service)
	})
	v1.POST("/profile", func(c echo.Context) error {
		return submitProfile(c, service, logger)
	})

	v1.GET("/subjects", getSubjects)

	v1.GET("/state", func(c echo.Context) error {
		snap := stateStore.Current()
		return c.JSON(http.StatusOK, StateResponse{State: snap.State, Ringing: snap.Ringing})
	})

	v1.GET("/transcript", func(c echo.Context) error {
		return c.JSON(http.StatusOK, TranscriptResponse{Messages: service.Transcript().Messages()})
	})

	// WebSocket endpoint
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

// getProfile returns the stored learner profile, or 404 before onboarding.
func getProfile(c echo.Context, service *usecase.TutorService) error {
	profile := service.Profile()
	if profile == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_profile",
			Message: "No profile has been created yet",
		})
	}
	return c.JSON(http.StatusOK, ProfileResponse{
		Name:       profile.Name,
		GradeLevel: profile.GradeLevel,
		WakeWord:   profile.WakeWordOrDefault(),
	})
}

// submitProfile validates and stores the onboarding form.
func submitProfile(c echo.Context, service *usecase.TutorService, logger *zap.Logger) error {
	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind profile request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	profile := entities.UserProfile{
		Name:       req.Name,
		GradeLevel: req.GradeLevel,
		WakeWord:   req.WakeWord,
	}
	if err := service.SetProfile(profile); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "profile_rejected",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, ProfileResponse{
		Name:       profile.Name,
		GradeLevel: profile.GradeLevel,
		WakeWord:   profile.WakeWordOrDefault(),
	})
}

func getSubjects(c echo.Context) error {
	return c.JSON(http.StatusOK, SubjectsResponse{Subjects: entities.Subjects()})
}
