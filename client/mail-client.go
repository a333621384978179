package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"eventdesk/config"
)

type Attachment struct {
	Filename string `json:"filename"`
	// Content marshals to base64, which is what the mail API expects.
	Content []byte `json:"content"`
}

type MailClient struct {
	APIURL string
	APIKey string
	From   string
	Client *http.Client
}

func NewMailClient() *MailClient {
	cfg := config.Env()
	return &MailClient{
		APIURL: cfg.MailAPIURL,
		APIKey: cfg.MailAPIKey,
		From:   cfg.MailFrom,
		Client: &http.Client{},
	}
}

type sendMailRequest struct {
	From        string        `json:"from"`
	To          []string      `json:"to"`
	Subject     string        `json:"subject"`
	HTML        string        `json:"html"`
	Attachments []*Attachment `json:"attachments,omitempty"`
}

func (c *MailClient) Send(ctx context.Context, to string, subject string, html string, attachment *Attachment) error {
	request := &sendMailRequest{
		From:    c.From,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}
	if attachment != nil {
		request.Attachments = []*Attachment{attachment}
	}
	jsonData, err := json.Marshal(request)
	if err != nil {
		return err
	}
	httpRequest, err := http.NewRequestWithContext(ctx, "POST", c.APIURL, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+c.APIKey)
	response, err := c.Client.Do(httpRequest)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode >= 400 {
		body, _ := io.ReadAll(response.Body)
		return fmt.Errorf("mail api returned %d: %s", response.StatusCode, string(body))
	}
	return nil
}
