package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTokenURL = "https://zoom.us/oauth/token"
	defaultAPIURL   = "https://api.zoom.us/v2"
)

// ZoomProvisioner creates scheduled Zoom meetings via the server-to-server
// OAuth flow (account_credentials grant). A fresh token is requested per call;
// bookings are infrequent enough that token caching is not worth the state.
type ZoomProvisioner struct {
	accountID    string
	clientID     string
	clientSecret string

	httpClient *http.Client
	tokenURL   string
	apiURL     string
}

// NewZoom builds a provisioner. The timeout bounds the whole provisioning
// call; it must stay short because booking waits on it.
func NewZoom(accountID, clientID, clientSecret string, timeout time.Duration) *ZoomProvisioner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ZoomProvisioner{
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		tokenURL:     defaultTokenURL,
		apiURL:       defaultAPIURL,
	}
}

func (z *ZoomProvisioner) configured() bool {
	return z.accountID != "" && z.clientID != "" && z.clientSecret != ""
}

func (z *ZoomProvisioner) CreateLink(ctx context.Context, topic string, startAt time.Time) (string, error) {
	if !z.configured() {
		return PlaceholderLink, nil
	}

	token, err := z.accessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("zoom token: %w", err)
	}

	payload := map[string]any{
		"topic":      topic,
		"type":       2, // scheduled meeting
		"start_time": startAt.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   30,
		"timezone":   "UTC",
		"settings": map[string]any{
			"host_video":        true,
			"participant_video": true,
			"join_before_host":  true,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal meeting payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.apiURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create meeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create meeting: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		JoinURL string `json:"join_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode meeting response: %w", err)
	}
	if out.JoinURL == "" {
		return "", fmt.Errorf("create meeting: response had no join_url")
	}
	return out.JoinURL, nil
}

func (z *ZoomProvisioner) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", z.accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(z.clientID, z.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token response had no access_token")
	}
	return out.AccessToken, nil
}
