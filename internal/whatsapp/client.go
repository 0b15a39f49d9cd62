package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// Sentinel error codes for failures the provider never saw or answered.
	CodeNetworkError = "NETWORK_ERROR"
	CodeParseError   = "PARSE_ERROR"
	CodeUnknown      = "UNKNOWN"
)

// SendRequest carries the template parameters for one notification.
type SendRequest struct {
	PhoneE164     string
	RecipientName string
	SenderName    string
	GuideNumber   string
}

// Result classifies one delivery attempt. Exactly one of MessageID or the
// error pair is populated.
type Result struct {
	Success      bool
	MessageID    string
	ErrorMessage string
	ErrorCode    string
}

// Client sends templated messages through the WhatsApp Cloud (Graph) API.
// It never retries; retry policy belongs to the queue processor.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	phoneNumberID string
	templateName  string
	templateLang  string
	graphVersion  string
}

type Options struct {
	BaseURL       string // defaults to the Graph API endpoint
	Token         string
	PhoneNumberID string
	TemplateName  string
	TemplateLang  string
	GraphVersion  string
	Timeout       time.Duration
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         opts.Token,
		phoneNumberID: opts.PhoneNumberID,
		templateName:  opts.TemplateName,
		templateLang:  opts.TemplateLang,
		graphVersion:  opts.GraphVersion,
	}
}

// Configured reports whether delivery credentials are present. Processing a
// batch without them is an infrastructure error, not a per-row failure.
func (c *Client) Configured() bool {
	return c.token != "" && c.phoneNumberID != ""
}

func (c *Client) TemplateName() string { return c.templateName }

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type sendBody struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Template         struct {
		Name     string `json:"name"`
		Language struct {
			Code string `json:"code"`
		} `json:"language"`
		Components []templateComponent `json:"components"`
	} `json:"template"`
}

type graphResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// Send delivers one templated notification and classifies the outcome. A
// transport failure maps to NETWORK_ERROR, an unreadable body to PARSE_ERROR,
// and a rejected response carries the provider's error code when present.
func (c *Client) Send(ctx context.Context, req SendRequest) Result {
	body := sendBody{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(req.PhoneE164, "+"),
		Type:             "template",
	}
	body.Template.Name = c.templateName
	body.Template.Language.Code = c.templateLang
	body.Template.Components = []templateComponent{{
		Type: "body",
		Parameters: []templateParameter{
			{Type: "text", Text: req.RecipientName},
			{Type: "text", Text: req.SenderName},
			{Type: "text", Text: req.GuideNumber},
		},
	}}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{ErrorMessage: err.Error(), ErrorCode: CodeUnknown}
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.graphVersion, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{ErrorMessage: err.Error(), ErrorCode: CodeUnknown}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{ErrorMessage: err.Error(), ErrorCode: CodeNetworkError}
	}
	defer resp.Body.Close()

	var graph graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&graph); err != nil {
		return Result{ErrorMessage: err.Error(), ErrorCode: CodeParseError}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && len(graph.Messages) > 0 && graph.Messages[0].ID != "" {
		return Result{Success: true, MessageID: graph.Messages[0].ID}
	}

	errMsg := fmt.Sprintf("unexpected response (status %d)", resp.StatusCode)
	errCode := CodeUnknown
	if graph.Error != nil {
		if graph.Error.Message != "" {
			errMsg = graph.Error.Message
		}
		if code := decodeErrorCode(graph.Error.Code); code != "" {
			errCode = code
		}
	}
	return Result{ErrorMessage: errMsg, ErrorCode: errCode}
}

// decodeErrorCode tolerates both numeric and string error codes, which the
// Graph API has used interchangeably across versions.
func decodeErrorCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return fmt.Sprintf("%d", asNumber)
	}
	return ""
}
