package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
)

const (
	stravaTokenURL = "https://www.strava.com/oauth/token"
	stravaAPIURL   = "https://www.strava.com/api/v3"
)

var (
	runKeywords  = []string{"run", "jog", "trail"}
	liftKeywords = []string{"weight", "strength", "lift", "gym", "training"}
)

type stravaActivity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	SportType  string  `json:"sport_type"`
	MovingTime int     `json:"moving_time"`
	Distance   float64 `json:"distance"`
	StartDate  string  `json:"start_date"`
}

// StravaFetcher pulls recent activities from the Strava v3 API using
// the OAuth refresh-token flow: every fetch trades the long-lived
// refresh token for a short-lived access token, then lists activities.
type StravaFetcher struct {
	tokenURL     string
	apiURL       string
	clientID     string
	clientSecret string
	refreshToken string
	lookback     int
	client       *http.Client
	logger       *slog.Logger
}

func NewStrava(cfg *config.Config, client *http.Client, logger *slog.Logger) *StravaFetcher {
	return &StravaFetcher{
		tokenURL:     stravaTokenURL,
		apiURL:       stravaAPIURL,
		clientID:     cfg.Sources.StravaClientID,
		clientSecret: cfg.Sources.StravaClientSecret,
		refreshToken: cfg.Sources.StravaRefreshToken,
		lookback:     cfg.Fetch.ActivityLookbackDays,
		client:       client,
		logger:       logger,
	}
}

func (f *StravaFetcher) Source() health.Source { return health.SourceStrava }

func (f *StravaFetcher) Fetch(ctx context.Context) (*health.Payload, error) {
	if f.clientID == "" || f.clientSecret == "" || f.refreshToken == "" {
		return nil, fmt.Errorf("strava credentials not configured: %w", ErrAuth)
	}

	token, err := f.refreshAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	activities, err := f.listActivities(ctx, token)
	if err != nil {
		return nil, err
	}

	payload := normalizeStravaActivities(activities)
	f.logger.Debug("fetched strava activities",
		"total", len(activities), "kept", len(payload.Activities))

	// An empty list on a 200 is a real answer: nothing was logged in
	// the window. Returning it as data keeps stale cached activities
	// from masquerading as this week's training.
	return payload, nil
}

func (f *StravaFetcher) refreshAccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", f.clientID)
	form.Set("client_secret", f.clientSecret)
	form.Set("refresh_token", f.refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", classifyTransport(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Strava answers 400 to a dead refresh token, not 401.
	if resp.StatusCode == http.StatusBadRequest {
		return "", fmt.Errorf("strava refresh token rejected: %w", ErrAuth)
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		return "", fmt.Errorf("strava token endpoint: %w", err)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding strava token response: %w", ErrParse)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("strava token response missing access_token: %w", ErrAuth)
	}
	return body.AccessToken, nil
}

func (f *StravaFetcher) listActivities(ctx context.Context, token string) ([]stravaActivity, error) {
	after := time.Now().AddDate(0, 0, -f.lookback).Unix()
	params := url.Values{}
	params.Set("after", strconv.FormatInt(after, 10))
	params.Set("per_page", "100")

	reqURL := fmt.Sprintf("%s/athlete/activities?%s", f.apiURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, classifyTransport(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("strava activities endpoint: %w", err)
	}

	var activities []stravaActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding strava activities: %w", ErrParse)
	}
	return activities, nil
}

func normalizeStravaActivities(activities []stravaActivity) *health.Payload {
	payload := &health.Payload{}
	for _, a := range activities {
		started, err := time.Parse(time.RFC3339, a.StartDate)
		if err != nil {
			continue
		}
		payload.Activities = append(payload.Activities, health.ActivityEntry{
			Category:       Categorize(a.SportType, a.Type, a.Name),
			Name:           a.Name,
			Duration:       time.Duration(a.MovingTime) * time.Second,
			DistanceMeters: a.Distance,
			StartTime:      started,
		})
	}
	return payload
}

// Categorize buckets an activity as run, lift, or other. Run keywords
// match only the sport/activity type; lift keywords also match the
// title, so a "Gym Session" workout counts even when Strava typed it
// generically. Run wins when both could match.
func Categorize(sportType, activityType, name string) health.ActivityCategory {
	st := strings.ToLower(sportType)
	at := strings.ToLower(activityType)
	title := strings.ToLower(name)

	for _, kw := range runKeywords {
		if strings.Contains(st, kw) || strings.Contains(at, kw) {
			return health.CategoryRun
		}
	}
	for _, kw := range liftKeywords {
		if strings.Contains(st, kw) || strings.Contains(at, kw) || strings.Contains(title, kw) {
			return health.CategoryLift
		}
	}
	return health.CategoryOther
}
