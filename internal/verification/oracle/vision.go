package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainerrors "nagrik/pkg/domain-errors"
)

const (
	defaultTimeout = 15 * time.Second
	maxLabels      = 10
)

// VisionClient calls a label-detection endpoint shaped like the Google
// Cloud Vision images:annotate API.
type VisionClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewVisionClient builds a client for the given annotate endpoint. The API
// key is passed as the `key` query parameter on each request.
func NewVisionClient(endpoint, apiKey string) (*VisionClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("vision client: endpoint is required")
	}
	return &VisionClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultTimeout},
	}, nil
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Source annotateSource `json:"source"`
}

type annotateSource struct {
	ImageURI string `json:"imageUri"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateResponse struct {
	Responses []struct {
		LabelAnnotations []struct {
			Description string  `json:"description"`
			Score       float64 `json:"score"`
		} `json:"labelAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Classify sends a LABEL_DETECTION request for the media URL and returns
// the oracle's labels. Transport and non-2xx failures map to
// CodeUnavailable so callers can treat the oracle as a degraded dependency.
func (c *VisionClient) Classify(ctx context.Context, mediaURL string) ([]Label, error) {
	if mediaURL == "" {
		return nil, domainerrors.New(domainerrors.CodeValidation, "media URL is required")
	}

	payload := annotateRequest{
		Requests: []annotateEntry{{
			Image:    annotateImage{Source: annotateSource{ImageURI: mediaURL}},
			Features: []annotateFeature{{Type: "LABEL_DETECTION", MaxResults: maxLabels}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "encode annotate request")
	}

	url := c.endpoint
	if c.apiKey != "" {
		url = fmt.Sprintf("%s?key=%s", c.endpoint, c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build annotate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "oracle request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "read oracle response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domainerrors.Newf(domainerrors.CodeUnavailable, "oracle returned status %d", resp.StatusCode)
	}

	var decoded annotateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "decode oracle response")
	}
	if len(decoded.Responses) == 0 {
		return nil, nil
	}
	first := decoded.Responses[0]
	if first.Error != nil {
		return nil, domainerrors.Newf(domainerrors.CodeUnavailable, "oracle error %d: %s", first.Error.Code, first.Error.Message)
	}

	labels := make([]Label, 0, len(first.LabelAnnotations))
	for _, a := range first.LabelAnnotations {
		labels = append(labels, Label{Description: a.Description, Score: a.Score})
	}
	return labels, nil
}
