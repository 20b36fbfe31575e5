// Package messenger models the Messenger webhook envelope and sends
// outbound text replies through the Graph API.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultGraphURL = "https://graph.facebook.com/v18.0"

type Config struct {
	VerifyToken string `yaml:"verifyToken"`
	AccessToken string `yaml:"accessToken"`
	GraphURL    string `yaml:"graphURL"`
}

// WebhookPayload is the root object delivered by the platform.
type WebhookPayload struct {
	Object  string  `json:"object"`
	Entries []Entry `json:"entry"`
}

type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

type Messaging struct {
	Sender    Party    `json:"sender"`
	Recipient Party    `json:"recipient"`
	Timestamp int64    `json:"timestamp"`
	Message   *Message `json:"message,omitempty"`
}

type Party struct {
	ID string `json:"id"`
}

type Message struct {
	MID         string       `json:"mid,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

type AttachmentPayload struct {
	URL string `json:"url,omitempty"`
}

// ImageURL returns the first image attachment URL, if any.
func (m *Message) ImageURL() string {
	if m == nil {
		return ""
	}

	for _, att := range m.Attachments {
		if att.Type == "image" && att.Payload.URL != "" {
			return att.Payload.URL
		}
	}

	return ""
}

// Verify implements the webhook subscription handshake. It returns the
// challenge to echo back, or false when the token does not match.
func Verify(mode, token, challenge, verifyToken string) (string, bool) {
	if mode != "subscribe" || token != verifyToken {
		return "", false
	}

	return challenge, true
}

// Sender delivers a text reply to one recipient.
type Sender interface {
	SendText(ctx context.Context, recipientID string, text string) error
}

func NewSender(cfg Config) Sender {
	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = DefaultGraphURL
	}

	return &graphSender{
		graphURL:    graphURL,
		accessToken: cfg.AccessToken,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type graphSender struct {
	graphURL    string
	accessToken string
	client      *http.Client
}

type sendRequest struct {
	Recipient Party    `json:"recipient"`
	Message   sendText `json:"message"`
}

type sendText struct {
	Text string `json:"text"`
}

func (s *graphSender) SendText(ctx context.Context, recipientID string, text string) error {
	payload := sendRequest{
		Recipient: Party{ID: recipientID},
		Message:   sendText{Text: text},
	}

	data, err := json.Marshal(&payload)
	if err != nil {
		return err
	}

	endpoint := s.graphURL + "/me/messages?access_token=" + url.QueryEscape(s.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("send message failed: status %d: %s", resp.StatusCode, body)
	}

	return nil
}
