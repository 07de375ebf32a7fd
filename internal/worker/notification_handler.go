// Package worker delivers queued notifications to the team chat tool.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	mqcontracts "projectpulse/contracts/mq"
	"projectpulse/pkg/metrics"
)

// Chat is the slice of the chat client delivery needs.
type Chat interface {
	PostMessage(ctx context.Context, channel, text string, blocks []map[string]any) error
	EnsureChannel(ctx context.Context, name string) (string, error)
	SetTopic(ctx context.Context, channelID, topic string) error
	LookupUserByEmail(ctx context.Context, email string) (string, error)
	InviteUsers(ctx context.Context, channelID string, userIDs []string) error
}

type NotificationHandler struct {
	chat           Chat
	defaultChannel string
	logger         *zap.Logger
}

func NewNotificationHandler(chat Chat, defaultChannel string, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		chat:           chat,
		defaultChannel: defaultChannel,
		logger:         logger,
	}
}

// Handle delivers one notification.created event. A project announcement
// additionally sets up the project's own channel and invites its members;
// everything else goes to the default channel.
func (h *NotificationHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.NotificationCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal NotificationCreatedPayload", zap.Error(err))
		// Malformed payloads never become deliverable; drop instead of requeue.
		metrics.IncrementNotificationDelivered("unknown", "malformed")
		return nil
	}

	h.logger.Info("Handling notification.created event",
		zap.String("kind", p.Kind),
		zap.String("project", p.ProjectName),
	)

	channel := p.Channel
	if channel == "" {
		channel = h.defaultChannel
	}

	if p.Kind == mqcontracts.KindProjectCreated && p.ProjectName != "" {
		if id, err := h.setUpProjectChannel(ctx, p); err != nil {
			// Channel setup is best effort; the announcement still goes out.
			h.logger.Error("Failed to set up project channel",
				zap.String("project", p.ProjectName),
				zap.Error(err),
			)
		} else if err := h.chat.PostMessage(ctx, id, p.Text, p.Blocks); err != nil {
			h.logger.Error("Failed to post to project channel",
				zap.String("project", p.ProjectName),
				zap.Error(err),
			)
		}
	}

	if err := h.chat.PostMessage(ctx, channel, p.Text, p.Blocks); err != nil {
		metrics.IncrementNotificationDelivered(p.Kind, "failed")
		return fmt.Errorf("deliver %s: %w", p.Kind, err)
	}

	metrics.IncrementNotificationDelivered(p.Kind, "success")
	return nil
}

func (h *NotificationHandler) setUpProjectChannel(ctx context.Context, p mqcontracts.NotificationCreatedPayload) (string, error) {
	name := ChannelName(p.ProjectName)

	id, err := h.chat.EnsureChannel(ctx, name)
	if err != nil {
		return "", err
	}

	if err := h.chat.SetTopic(ctx, id, fmt.Sprintf("Coordination for %s", p.ProjectName)); err != nil {
		h.logger.Warn("Failed to set channel topic",
			zap.String("channel", name), zap.Error(err))
	}

	var userIDs []string
	for _, email := range p.MemberEmails {
		uid, err := h.chat.LookupUserByEmail(ctx, email)
		if err != nil {
			h.logger.Warn("Member email did not resolve to a chat user",
				zap.String("email", email), zap.Error(err))
			continue
		}
		userIDs = append(userIDs, uid)
	}
	if err := h.chat.InviteUsers(ctx, id, userIDs); err != nil {
		h.logger.Warn("Failed to invite members",
			zap.String("channel", name), zap.Error(err))
	}

	return id, nil
}

var channelNameRe = regexp.MustCompile(`[^a-z0-9-]+`)

// ChannelName derives the chat channel name for a project: lowercased,
// non-alphanumerics collapsed to hyphens, prefixed with "proj-" and
// capped at the chat tool's 80 character limit.
func ChannelName(projectName string) string {
	name := strings.ToLower(projectName)
	name = channelNameRe.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	name = "proj-" + name
	if len(name) > 80 {
		name = name[:80]
	}
	return name
}
