// Package websocket connects browser clients to the tutor runtime: it fans
// state transitions and transcript updates out to every client and routes
// client commands into the conversation coordinator.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
	"github.com/xuanvuong/mochi/server/domain/repositories"
	"github.com/xuanvuong/mochi/server/internal/state"
	"github.com/xuanvuong/mochi/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Ceiling for one full conversational turn including playback.
	turnTimeout = 120 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local companion app, same-origin enforcement is left to the proxy.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and broadcasts state and transcript
// updates to them.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	service   *usecase.TutorService
	stt       repositories.SpeechToText
	stateRepo *state.Store
	validator *MessageValidator

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	service *usecase.TutorService,
	stt repositories.SpeechToText,
	stateStore *state.Store,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		service:    service,
		stt:        stt,
		stateRepo:  stateStore,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop: client registration plus fan-out of state
// snapshots and tutor events. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	snapshots, cancel := h.stateRepo.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.id))

			// Late joiners catch up on the current state immediately.
			client.sendJSON(h.stateUpdate(h.stateRepo.Current()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case snap := <-snapshots:
			h.broadcast(h.stateUpdate(snap))

		case ev := <-h.service.Events():
			h.broadcast(h.eventMessage(ev))
		}
	}
}

func (h *Hub) stateUpdate(snap state.Snapshot) interface{} {
	return &StateUpdateMessage{
		BaseMessage: NewBaseMessage(MessageTypeStateUpdate),
		State:       snap.State,
		Ringing:     snap.Ringing,
	}
}

func (h *Hub) eventMessage(ev usecase.Event) interface{} {
	switch ev.Kind {
	case usecase.EventReminderSet:
		return &ReminderSetMessage{
			BaseMessage:  NewBaseMessage(MessageTypeReminderSet),
			ID:           ev.Reminder.ID,
			Label:        ev.Reminder.Label,
			DelayMinutes: ev.Reminder.Delay.Minutes(),
		}
	default:
		return &ChatMessageMessage{
			BaseMessage: NewBaseMessage(MessageTypeChatMessage),
			Speaker:     ev.Message.Speaker,
			Text:        ev.Message.Text,
			IsStreaming: ev.Message.IsStreaming,
		}
	}
}

// broadcast sends a message to every connected client, dropping clients whose
// send buffers are full.
func (h *Hub) broadcast(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, client := range h.clients {
		select {
		case client.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
		default:
			h.logger.Warn("Dropping broadcast, client buffer full", zap.String("clientID", id))
		}
	}
}

type WriteData struct {
	// Type is the websocket frame type, websocket.TextMessage or
	// websocket.BinaryMessage.
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id     string
	logger *zap.Logger

	// Voice capture session, guarded by mutex. sttCancel tears down the
	// recognition stream's context when the capture ends or the connection
	// goes away.
	sttStreaming   repositories.SpeechToTextStreaming
	sttCancel      context.CancelFunc
	chunkCount     int
	listeningStart time.Time

	mutex sync.Mutex
}

// HandleWebSocket handles websocket requests from the peer.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, 256),
		id:     uuid.NewString(),
		logger: logger,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.abandonCapture()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage routes one parsed client command.
func (c *Client) processMessage(message []byte) {
	parsed, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected message", zap.Error(err))
		c.sendError("invalid_message", err.Error())
		return
	}

	switch msg := parsed.(type) {
	case *ProfileSubmitMessage:
		c.handleProfileSubmit(msg)
	case *SelectSubjectMessage:
		c.handleSelectSubject(msg)
	case *SendMessageMessage:
		c.handleSendMessage(msg.Text)
	case *DismissAlarmMessage:
		c.hub.service.DismissAlarm()
	case *SetReminderMessage:
		c.handleSetReminder(msg)
	case *CancelReminderMessage:
		c.hub.service.CancelReminder(msg.ID)
	case *ListeningStartMessage:
		c.handleListeningStart(msg)
	case *ListeningEndMessage:
		c.handleListeningEnd()
	case *EnterSleepMessage:
		c.hub.stateRepo.Set(entities.StateEnteringDeepSleep)
	case *WakeUpMessage:
		c.hub.stateRepo.Set(entities.StateIdle)
	case *PingMessage:
		c.sendJSON(&PongMessage{BaseMessage: NewBaseMessage(MessageTypePong)})
	}
}

func (c *Client) handleProfileSubmit(msg *ProfileSubmitMessage) {
	profile := entities.UserProfile{
		Name:       msg.Name,
		GradeLevel: msg.GradeLevel,
		WakeWord:   msg.WakeWord,
	}
	if err := c.hub.service.SetProfile(profile); err != nil {
		c.logger.Error("Failed to set profile", zap.Error(err))
		c.sendError("profile_rejected", err.Error())
		return
	}
	c.logger.Info("Profile submitted", zap.String("name", profile.Name))
}

func (c *Client) handleSelectSubject(msg *SelectSubjectMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.hub.service.StartChatSession(ctx, entities.Subject(msg.Subject)); err != nil {
		c.logger.Error("Failed to start session",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		c.sendError("session_failed", "không thể bắt đầu phiên học")
		return
	}
}

func (c *Client) handleSendMessage(text string) {
	// One turn at a time: new input is rejected while Mochi is thinking or
	// speaking rather than queued behind the current turn. A ringing alarm
	// blocks input too; only dismissal applies there.
	switch c.hub.stateRepo.State() {
	case entities.StateThinking, entities.StateSpeaking:
		c.sendError("busy", "Mochi đang trả lời, bạn chờ một chút nhé")
		return
	case entities.StateAlarmRinging:
		c.sendError("busy", "Hãy tắt chuông báo trước đã nhé")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		if err := c.hub.service.SendMessage(ctx, text); err != nil {
			c.logger.Error("Turn failed", zap.Error(err))
		}
	}()
}

func (c *Client) handleSetReminder(msg *SetReminderMessage) {
	kind := entities.KindReminder
	if msg.Kind == string(entities.KindAlarm) {
		kind = entities.KindAlarm
	}
	delay := time.Duration(msg.DelayMinutes * float64(time.Minute))

	id := c.hub.service.ScheduleEntry(kind, msg.Label, delay)
	c.sendJSON(&ReminderSetMessage{
		BaseMessage:  NewBaseMessage(MessageTypeReminderSet),
		ID:           id,
		Label:        msg.Label,
		DelayMinutes: msg.DelayMinutes,
	})
}

// handleListeningStart opens a streaming transcription session; until
// listening_end the client sends raw audio as binary frames. The recognition
// stream's context must outlive this handler: it stays open for the whole
// capture and is cancelled only when the capture ends or the client leaves.
func (c *Client) handleListeningStart(msg *ListeningStartMessage) {
	ctx, cancel := context.WithCancel(context.Background())

	audioConfig := repositories.AudioConfig{
		SampleRate: 48000,
		Language:   "vi-VN",
		Encoding:   "LINEAR16",
	}
	if msg.SampleRate > 0 {
		audioConfig.SampleRate = msg.SampleRate
	}
	if msg.Language != "" {
		audioConfig.Language = msg.Language
	}
	if msg.Encoding != "" {
		audioConfig.Encoding = msg.Encoding
	}

	stream, err := c.hub.stt.InitTranscribeStreaming(ctx, audioConfig)
	if err != nil {
		cancel()
		c.logger.Error("Failed to initialize streaming transcription", zap.Error(err))
		c.sendError("stt_failed", "không thể bắt đầu ghi âm")
		return
	}

	c.mutex.Lock()
	prevCancel := c.sttCancel
	c.sttStreaming = stream
	c.sttCancel = cancel
	c.chunkCount = 0
	c.listeningStart = time.Now()
	c.mutex.Unlock()

	// A restarted capture abandons the previous stream.
	if prevCancel != nil {
		prevCancel()
	}

	c.hub.stateRepo.Set(entities.StateListening)
	c.logger.Info("Voice capture started", zap.String("clientID", c.id))
}

// processBinaryAudioChunk handles binary audio data
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttStreaming == nil {
		c.logger.Warn("Received audio chunk outside a capture session",
			zap.String("clientID", c.id))
		return
	}

	c.chunkCount++
	if err := c.sttStreaming.Stream(data); err != nil {
		c.logger.Error("Failed to stream audio data", zap.Error(err))
		return
	}

	c.logger.Debug("Forwarded audio chunk",
		zap.String("clientID", c.id),
		zap.Int("totalChunks", c.chunkCount))
}

// handleListeningEnd finishes the capture, reports the transcription, and
// feeds it into the conversation as a user turn.
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	stream := c.sttStreaming
	cancel := c.sttCancel
	c.sttStreaming = nil
	c.sttCancel = nil
	started := c.listeningStart
	c.mutex.Unlock()

	if stream == nil {
		c.sendError("stt_failed", "không có phiên ghi âm nào đang mở")
		return
	}
	// End drains the stream's final results, so cancel only afterwards.
	defer cancel()

	transcription, err := stream.End()
	if err != nil {
		c.logger.Error("Failed to end transcription stream", zap.Error(err))
		c.hub.stateRepo.Set(entities.StateIdle)
		c.sendError("stt_failed", "không nhận dạng được giọng nói")
		return
	}

	c.logger.Info("Transcription completed",
		zap.String("clientID", c.id),
		zap.Duration("captureDuration", time.Since(started)),
		zap.String("transcription", transcription))

	c.sendJSON(&TranscriptionMessage{
		BaseMessage: NewBaseMessage(MessageTypeTranscription),
		Text:        transcription,
	})

	if transcription == "" {
		c.hub.stateRepo.Set(entities.StateIdle)
		return
	}
	c.handleSendMessage(transcription)
}

// abandonCapture drops any open recognition stream when the client goes away.
func (c *Client) abandonCapture() {
	c.mutex.Lock()
	cancel := c.sttCancel
	c.sttStreaming = nil
	c.sttCancel = nil
	c.mutex.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Client) sendError(code, message string) {
	c.sendJSON(&ErrorMessage{
		BaseMessage: NewBaseMessage(MessageTypeError),
		Code:        code,
		Message:     message,
	})
}

func (c *Client) sendJSON(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Dropping message, client buffer full", zap.String("clientID", c.id))
	}
}
