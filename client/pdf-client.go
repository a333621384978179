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

// CertificateData is the structured input for the external PDF render
// service.
type CertificateData struct {
	Template       string `json:"template"`
	RegistrationId string `json:"registrationId"`
	Name           string `json:"name"`
	School         string `json:"school"`
	EventTitle     string `json:"eventTitle"`
	EventDates     string `json:"eventDates"`
	Category       string `json:"category,omitempty"`
	Position       int    `json:"position,omitempty"`
}

type PdfClient struct {
	BaseURL string
	Client  *http.Client
}

func NewPdfClient() *PdfClient {
	return &PdfClient{
		BaseURL: config.Env().PdfServerURL,
		Client:  &http.Client{},
	}
}

func (c *PdfClient) Render(ctx context.Context, data *CertificateData) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/render", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := c.Client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode >= 400 {
		return nil, fmt.Errorf("pdf server returned %d: %s", response.StatusCode, string(body))
	}
	return body, nil
}
