// Package slack is the thin client for the team chat tool's Web API.
// Delivery policy (what to send and when) lives with the notification
// dispatcher; this package only moves requests over the wire and smooths
// over the API's benign failure modes.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *Client) postJSON(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat request %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (c *Client) getForm(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat request %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// PostMessage posts plain text plus an optional structured block layout
// to a channel.
func (c *Client) PostMessage(ctx context.Context, channel, text string, blocks []map[string]any) error {
	payload := map[string]any{
		"channel": channel,
		"text":    text,
	}
	if len(blocks) > 0 {
		payload["blocks"] = blocks
	}

	var resp apiResponse
	if err := c.postJSON(ctx, "chat.postMessage", payload, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("chat.postMessage: %s", resp.Error)
	}
	return nil
}

type channelResponse struct {
	apiResponse
	Channel struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"channel"`
}

// EnsureChannel creates a channel, falling back to looking up the
// existing one when the name is already taken.
func (c *Client) EnsureChannel(ctx context.Context, name string) (string, error) {
	var resp channelResponse
	if err := c.postJSON(ctx, "conversations.create", map[string]any{"name": name}, &resp); err != nil {
		return "", err
	}
	if resp.OK {
		c.logger.Info("Channel created", zap.String("channel", name), zap.String("id", resp.Channel.ID))
		return resp.Channel.ID, nil
	}
	if resp.Error != "name_taken" {
		return "", fmt.Errorf("conversations.create: %s", resp.Error)
	}
	return c.findChannel(ctx, name)
}

func (c *Client) findChannel(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("limit", "200")
	params.Set("types", "public_channel,private_channel")

	for {
		var resp struct {
			apiResponse
			Channels []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"channels"`
			ResponseMetadata struct {
				NextCursor string `json:"next_cursor"`
			} `json:"response_metadata"`
		}
		if err := c.getForm(ctx, "conversations.list", params, &resp); err != nil {
			return "", err
		}
		if !resp.OK {
			return "", fmt.Errorf("conversations.list: %s", resp.Error)
		}

		for _, ch := range resp.Channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}

		if resp.ResponseMetadata.NextCursor == "" {
			return "", fmt.Errorf("channel %q not found", name)
		}
		params.Set("cursor", resp.ResponseMetadata.NextCursor)
	}
}

func (c *Client) SetTopic(ctx context.Context, channelID, topic string) error {
	var resp apiResponse
	err := c.postJSON(ctx, "conversations.setTopic", map[string]any{
		"channel": channelID,
		"topic":   topic,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("conversations.setTopic: %s", resp.Error)
	}
	return nil
}

// LookupUserByEmail resolves a member email to the chat tool's user id.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	params := url.Values{}
	params.Set("email", email)

	var resp struct {
		apiResponse
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := c.getForm(ctx, "users.lookupByEmail", params, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("users.lookupByEmail: %s", resp.Error)
	}
	return resp.User.ID, nil
}

// InviteUsers invites users to a channel. A member who is already present
// is not an error.
func (c *Client) InviteUsers(ctx context.Context, channelID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	var resp apiResponse
	err := c.postJSON(ctx, "conversations.invite", map[string]any{
		"channel": channelID,
		"users":   strings.Join(userIDs, ","),
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.OK && resp.Error != "already_in_channel" {
		return fmt.Errorf("conversations.invite: %s", resp.Error)
	}
	return nil
}
