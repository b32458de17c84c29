package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/rs/zerolog"
)

const apiKeyHeader = "apikey"

// Client talks to an Evolution API server over REST. Authentication uses
// the apikey header on every request.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.EvolutionClient = (*Client)(nil)

// NewClient creates a client for one Evolution API server.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "evolution_client").Logger(),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling evolution api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		if readErr != nil {
			return fmt.Errorf("evolution api returned status %d", resp.StatusCode)
		}

		c.log.Error().
			Str("method", method).
			Str("path", path).
			Int("status_code", resp.StatusCode).
			Str("error_body", string(errBody)).
			Msg("Evolution API returned error")

		return fmt.Errorf("evolution api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, endpoint, instance string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/message/%s/%s", endpoint, url.PathEscape(instance))
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendText posts a plain text message.
func (c *Client) SendText(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send(ctx, "sendText", instance, body)
}

// SendMedia posts an image, video or document message.
func (c *Client) SendMedia(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send(ctx, "sendMedia", instance, body)
}

// SendAudio posts a voice note.
func (c *Client) SendAudio(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send(ctx, "sendWhatsAppAudio", instance, body)
}

// SendLocation posts a location pin.
func (c *Client) SendLocation(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send(ctx, "sendLocation", instance, body)
}

// instanceEnvelope tolerates both response shapes the server emits:
// flat fields on recent versions, a nested instance object on older ones.
type instanceEnvelope struct {
	Name             string `json:"name"`
	ConnectionStatus string `json:"connectionStatus"`
	OwnerJID         string `json:"ownerJid"`
	ProfileName      string `json:"profileName"`
	Instance         *struct {
		InstanceName string `json:"instanceName"`
		Status       string `json:"status"`
		Owner        string `json:"owner"`
		ProfileName  string `json:"profileName"`
	} `json:"instance"`
}

func (e instanceEnvelope) toInfo() ports.InstanceInfo {
	info := ports.InstanceInfo{
		Name:            e.Name,
		ConnectionState: domain.ConnectionState(e.ConnectionStatus),
		OwnerJID:        e.OwnerJID,
		ProfileName:     e.ProfileName,
	}
	if info.Name == "" && e.Instance != nil {
		info.Name = e.Instance.InstanceName
		info.ConnectionState = domain.ConnectionState(e.Instance.Status)
		info.OwnerJID = e.Instance.Owner
		info.ProfileName = e.Instance.ProfileName
	}
	return info
}

// FetchInstances lists all instances registered on the server.
func (c *Client) FetchInstances(ctx context.Context) ([]ports.InstanceInfo, error) {
	var envelopes []instanceEnvelope
	if err := c.do(ctx, http.MethodGet, "/instance/fetchInstances", nil, &envelopes); err != nil {
		return nil, err
	}

	infos := make([]ports.InstanceInfo, 0, len(envelopes))
	for _, e := range envelopes {
		infos = append(infos, e.toInfo())
	}
	return infos, nil
}

// ConnectInstance requests pairing material for an instance.
func (c *Client) ConnectInstance(ctx context.Context, instance string) (*ports.ConnectResult, error) {
	var out struct {
		PairingCode string `json:"pairingCode"`
		Code        string `json:"code"`
		Count       int    `json:"count"`
	}
	path := "/instance/connect/" + url.PathEscape(instance)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &ports.ConnectResult{
		PairingCode: out.PairingCode,
		QRCode:      out.Code,
		Count:       out.Count,
	}, nil
}

// DisconnectInstance logs an instance out of its session.
func (c *Client) DisconnectInstance(ctx context.Context, instance string) error {
	path := "/instance/logout/" + url.PathEscape(instance)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ConnectionState reports the live connection state of an instance.
func (c *Client) ConnectionState(ctx context.Context, instance string) (domain.ConnectionState, error) {
	var out struct {
		Instance struct {
			InstanceName string `json:"instanceName"`
			State        string `json:"state"`
		} `json:"instance"`
	}
	path := "/instance/connectionState/" + url.PathEscape(instance)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return domain.ConnectionState(out.Instance.State), nil
}

// ServerInfo fetches the server's root status document.
func (c *Client) ServerInfo(ctx context.Context) (*ports.ServerInfo, error) {
	var out struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}

	return &ports.ServerInfo{
		Status:  out.Status,
		Message: out.Message,
		Version: out.Version,
	}, nil
}
