package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
)

// ouraSleepRecord is one sleep period from the Oura v2 sleep endpoint.
// Durations are in seconds. A day can have several records when naps
// were logged; the longest one is the main sleep.
type ouraSleepRecord struct {
	Day             string  `json:"day"`
	Type            string  `json:"type"`
	TotalSleep      int     `json:"total_sleep_duration"`
	TimeInBed       int     `json:"time_in_bed"`
	DeepSleep       int     `json:"deep_sleep_duration"`
	REMSleep        int     `json:"rem_sleep_duration"`
	AverageHRV      float64 `json:"average_hrv"`
	LowestHeartRate float64 `json:"lowest_heart_rate"`
}

type ouraSleepResponse struct {
	Data []ouraSleepRecord `json:"data"`
}

// OuraFetcher pulls sleep records from the Oura v2 API.
type OuraFetcher struct {
	baseURL  string
	token    string
	lookback int
	client   *http.Client
	logger   *slog.Logger
}

func NewOura(cfg *config.Config, client *http.Client, logger *slog.Logger) *OuraFetcher {
	return &OuraFetcher{
		baseURL:  cfg.Sources.OuraBaseURL,
		token:    cfg.Sources.OuraToken,
		lookback: cfg.Fetch.LookbackDays,
		client:   client,
		logger:   logger,
	}
}

func (f *OuraFetcher) Source() health.Source { return health.SourceOura }

func (f *OuraFetcher) Fetch(ctx context.Context) (*health.Payload, error) {
	if f.token == "" {
		return nil, fmt.Errorf("no oura token configured: %w", ErrAuth)
	}

	now := time.Now()
	params := url.Values{}
	params.Set("start_date", now.AddDate(0, 0, -f.lookback).Format("2006-01-02"))
	params.Set("end_date", now.Format("2006-01-02"))

	reqURL := fmt.Sprintf("%s/usercollection/sleep?%s", f.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, classifyTransport(err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("oura sleep endpoint: %w", err)
	}

	var body ouraSleepResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding oura response: %w", ErrParse)
	}

	payload := normalizeOuraSleep(body.Data)
	if payload.Empty() {
		return nil, fmt.Errorf("oura returned no sleep records: %w", ErrEmpty)
	}

	f.logger.Debug("fetched oura sleep data",
		"records", len(body.Data), "days", len(payload.Days))
	return payload, nil
}

// normalizeOuraSleep collapses raw sleep periods into one DailyRecord
// per day, keeping the longest period (naps lose to the main sleep),
// and orders days ascending.
func normalizeOuraSleep(records []ouraSleepRecord) *health.Payload {
	longest := make(map[string]ouraSleepRecord)
	for _, r := range records {
		if r.Day == "" || r.TotalSleep <= 0 {
			continue
		}
		if prev, ok := longest[r.Day]; !ok || r.TotalSleep > prev.TotalSleep {
			longest[r.Day] = r
		}
	}

	payload := &health.Payload{}
	for _, r := range longest {
		rec := health.DailyRecord{
			Day:           r.Day,
			SleepDuration: time.Duration(r.TotalSleep) * time.Second,
			HRV:           r.AverageHRV,
			RestingHR:     r.LowestHeartRate,
		}
		if r.TimeInBed > 0 {
			rec.SleepEfficiency = float64(r.TotalSleep) / float64(r.TimeInBed)
		}
		rec.DeepRatio = float64(r.DeepSleep) / float64(r.TotalSleep)
		rec.REMRatio = float64(r.REMSleep) / float64(r.TotalSleep)
		payload.Days = append(payload.Days, rec)
	}
	sort.Slice(payload.Days, func(i, j int) bool {
		return payload.Days[i].Day < payload.Days[j].Day
	})
	return payload
}
