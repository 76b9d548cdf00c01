package handler

import (
	"context"
	"time"

	"applybot/internal/flow"
	"applybot/internal/repository"
	"applybot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const lookupTimeout = 5 * time.Second

// Handler routes bot updates to the conversation manager and the directory.
type Handler struct {
	bot       *tele.Bot
	manager   *flow.Manager
	directory *service.Directory
	sessions  repository.SessionRepository
	logger    *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	manager *flow.Manager,
	directory *service.Directory,
	sessions repository.SessionRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:       bot,
		manager:   manager,
		directory: directory,
		sessions:  sessions,
		logger:    logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/help", h.handleHelp)
	h.bot.Handle("/profile", h.handleProfile)
	h.bot.Handle("/apply", h.handleApply)

	// Pausing the application, all aliases
	for _, cmd := range []string{"/cancel", "/stop", "/pause", "/exit"} {
		h.bot.Handle(cmd, h.handleCancel)
	}
	h.bot.Handle("/undo", h.handleUndo)
	h.bot.Handle("/back", h.handleUndo)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// lookupContext bounds directory lookups triggered by a single update.
func lookupContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), lookupTimeout)
}

func username(sender *tele.User) string {
	if sender == nil {
		return ""
	}
	return sender.Username
}
