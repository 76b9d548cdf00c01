package handler

import (
	"fmt"
	"strings"

	"applybot/internal/flow"
	"applybot/internal/messages"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// btnApply invites an unknown visitor to start the application.
var btnApply = tele.InlineButton{
	Text: messages.BtnApply,
	Data: applyCallback,
}

// handleStart greets the user according to who they are: member, candidate
// under review, or a new visitor.
func (h *Handler) handleStart(c tele.Context) error {
	sender := c.Sender()
	ctx, cancel := lookupContext()
	defer cancel()

	member, err := h.directory.MemberByTelegramID(ctx, sender.ID)
	if err != nil {
		h.logger.Error("member lookup failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if member != nil {
		if member.IsActive {
			return c.Send(fmt.Sprintf(messages.StartMemberActive, member.FullName))
		}
		return c.Send(fmt.Sprintf(messages.StartMemberInactive, member.FullName))
	}

	candidate, err := h.directory.CandidateByTelegramID(ctx, sender.ID)
	if err != nil {
		h.logger.Error("candidate lookup failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if candidate != nil {
		return c.Send(fmt.Sprintf(messages.StartCandidate, candidate.Name))
	}

	markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{btnApply}}}
	return c.Send(messages.StartUnknown, markup)
}

func (h *Handler) handleHelp(c tele.Context) error {
	sender := c.Sender()
	ctx, cancel := lookupContext()
	defer cancel()

	member, err := h.directory.MemberByTelegramID(ctx, sender.ID)
	if err != nil {
		h.logger.Error("member lookup failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if member != nil {
		if member.IsActive {
			return c.Send(messages.HelpMemberActive)
		}
		return c.Send(messages.HelpMemberInactive)
	}

	candidate, err := h.directory.CandidateByTelegramID(ctx, sender.ID)
	if err != nil {
		h.logger.Error("candidate lookup failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if candidate != nil {
		return c.Send(messages.HelpCandidate)
	}
	return c.Send(messages.HelpUnknown)
}

func (h *Handler) handleProfile(c tele.Context) error {
	sender := c.Sender()
	ctx, cancel := lookupContext()
	defer cancel()

	member, err := h.directory.MemberByTelegramID(ctx, sender.ID)
	if err != nil {
		h.logger.Error("member lookup failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if member == nil {
		return c.Send(messages.ProfileNotMember)
	}
	return c.Send(messages.Profile(
		member.FullName,
		member.Level,
		strings.Join(member.Languages, ", "),
	))
}

func (h *Handler) handleApply(c tele.Context) error {
	return h.beginApplication(c)
}

// beginApplication starts the form after ruling out people who should not
// fill it in: active members and candidates already on file.
func (h *Handler) beginApplication(c tele.Context) error {
	sender := c.Sender()
	ctx, cancel := lookupContext()
	defer cancel()

	member, err := h.directory.MemberByTelegramID(ctx, sender.ID)
	if err != nil {
		h.logger.Error("member lookup failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if member != nil {
		if !member.IsActive {
			// inactive members are re-onboarded by hand, not through the form
			return nil
		}
		if err := h.sessions.Delete(sender.ID); err != nil {
			h.logger.Warn("failed to drop stale session", zap.Int64("user_id", sender.ID), zap.Error(err))
		}
		return c.Send(messages.AlreadyMember)
	}

	candidate, err := h.directory.CandidateByTelegramID(ctx, sender.ID)
	if err != nil {
		h.logger.Error("candidate lookup failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if candidate != nil {
		if err := h.sessions.Delete(sender.ID); err != nil {
			h.logger.Warn("failed to drop stale session", zap.Int64("user_id", sender.ID), zap.Error(err))
		}
		return c.Send(messages.AlreadyApplied)
	}

	switch err := h.manager.Begin(sender.ID, username(sender)); err {
	case nil:
		return nil
	case flow.ErrAlreadyActive:
		return c.Send(messages.AlreadyApplying)
	case flow.ErrAlreadySubmitted:
		return c.Send(messages.AlreadyApplied)
	default:
		h.logger.Error("failed to begin application", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
}

func (h *Handler) handleCancel(c tele.Context) error {
	sender := c.Sender()

	cancelled, err := h.manager.Cancel(sender.ID)
	if err != nil {
		h.logger.Error("failed to cancel application", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if !cancelled {
		return nil
	}
	return c.Send(messages.StoppedAnswersSaved)
}

func (h *Handler) handleUndo(c tele.Context) error {
	sender := c.Sender()

	res, err := h.manager.Undo(sender.ID, username(sender))
	if err != nil {
		h.logger.Error("failed to undo", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	switch res {
	case flow.UndoDone:
		// the restarted conversation re-asks the previous question itself
		return nil
	case flow.UndoImpossible:
		return c.Send(messages.CannotGoBack)
	default:
		return nil
	}
}
