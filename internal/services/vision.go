package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultFrameName = "frame.jpg"

// VisionClient calls the frame analysis service over HTTP.
type VisionClient struct {
	enabled    bool
	baseURL    string
	httpClient *http.Client
}

func NewVisionClient(enabled bool, baseURL string, timeout time.Duration) *VisionClient {
	return &VisionClient{
		enabled:    enabled,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *VisionClient) Enabled() bool {
	return c.enabled && c.baseURL != ""
}

type visionResponse struct {
	Phone       bool   `json:"phone"`
	Drowsy      bool   `json:"drowsy"`
	LeftSeat    bool   `json:"left_seat"`
	LeftSeatAlt bool   `json:"leftSeat"`
	Activity    string `json:"activity"`
}

func (c *VisionClient) AnalyzeFrame(ctx context.Context, sessionID uuid.UUID, frame []byte, filename string) (*VisionVerdict, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if strings.TrimSpace(filename) == "" {
		filename = defaultFrameName
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(frame); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := c.baseURL + "/analyze-frame/" + sessionID.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("vision service returned status %d", resp.StatusCode)
	}

	var vr visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	return &VisionVerdict{
		Phone:    vr.Phone,
		Drowsy:   vr.Drowsy,
		LeftSeat: vr.LeftSeat || vr.LeftSeatAlt,
		Activity: vr.Activity,
	}, nil
}
