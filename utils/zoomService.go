package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"yogalive/config"

	"github.com/go-resty/resty/v2"
)

// MeetingProvider creates video-conferencing meetings for live sessions.
type MeetingProvider interface {
	CreateMeeting(topic string, startTime time.Time, durationMinutes int) (string, error)
}

// Meetings is the process-wide meeting provider. Tests swap in a fake.
var Meetings MeetingProvider = &zoomProvider{}

type zoomProvider struct{}

// getAccessToken fetches a server-to-server OAuth token from Zoom.
func (z *zoomProvider) getAccessToken() (string, error) {
	client := resty.New().SetTimeout(10 * time.Second)

	resp, err := client.R().
		SetQueryParams(map[string]string{
			"grant_type": "account_credentials",
			"account_id": config.AppConfig.ZoomAccountID,
		}).
		SetBasicAuth(config.AppConfig.ZoomClientID, config.AppConfig.ZoomClientSecret).
		Post("https://zoom.us/oauth/token")
	if err != nil {
		return "", fmt.Errorf("failed to request zoom token: %v", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("zoom token request failed: %s", resp.String())
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body(), &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse zoom token response: %v", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("zoom token response missing access_token")
	}

	return tokenResp.AccessToken, nil
}

// CreateMeeting schedules a Zoom meeting and returns the join URL.
func (z *zoomProvider) CreateMeeting(topic string, startTime time.Time, durationMinutes int) (string, error) {
	accessToken, err := z.getAccessToken()
	if err != nil {
		return "", err
	}

	client := resty.New().SetTimeout(10 * time.Second)

	body := map[string]interface{}{
		"topic":      topic,
		"type":       2, // scheduled meeting
		"start_time": startTime.UTC().Format(time.RFC3339),
		"duration":   durationMinutes,
		"settings": map[string]interface{}{
			"host_video":        true,
			"participant_video": true,
			"join_before_host":  false,
		},
	}

	resp, err := client.R().
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("https://api.zoom.us/v2/users/me/meetings")
	if err != nil {
		return "", fmt.Errorf("failed to create zoom meeting: %v", err)
	}
	if resp.StatusCode() != 201 {
		return "", fmt.Errorf("zoom meeting creation failed: %s", resp.String())
	}

	var meetingResp struct {
		JoinURL string `json:"join_url"`
	}
	if err := json.Unmarshal(resp.Body(), &meetingResp); err != nil {
		return "", fmt.Errorf("failed to parse zoom meeting response: %v", err)
	}

	return meetingResp.JoinURL, nil
}
