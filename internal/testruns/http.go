package testruns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitRuns submits one match run per event, concurrently.
func submitRuns(ctx context.Context, config *Config, rosters []EventRoster, stats *Stats) error {
	log.Printf("📤 Submitting %d match runs with %d workers...", len(rosters), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/match-runs"

	var (
		accepted  int64
		rejected  int64
		failed    int64
		submitted int64
	)

	rosterChan := make(chan *EventRoster, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for roster := range rosterChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 1)
				switch submitSingleRun(ctx, client, url, config, roster) {
				case "accepted":
					atomic.AddInt64(&accepted, 1)
				case "rejected":
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(rosterChan)
		for i := range rosters {
			select {
			case <-ctx.Done():
				return
			case rosterChan <- &rosters[i]:
			}
		}
	}()

	wg.Wait()

	stats.RunsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RunsAccepted = int(atomic.LoadInt64(&accepted))
	stats.RunsRejected = int(atomic.LoadInt64(&rejected))
	stats.RunsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Run submission completed:
   Accepted: %d
   Rejected: %d
   Failed: %d
`, stats.RunsAccepted, stats.RunsRejected, stats.RunsFailed)

	if stats.RunsAccepted == 0 {
		return fmt.Errorf("no run was accepted by the service")
	}
	return nil
}

// submitSingleRun posts one match run and classifies the outcome.
func submitSingleRun(ctx context.Context, client *HTTPClient, url string, config *Config, roster *EventRoster) string {
	request := RunRequest{
		EventID:    roster.EventID,
		TargetSize: config.TargetSize,
		Distribute: config.Distribute,
	}
	if config.Distribute {
		// Two venues with headroom over the roster size.
		request.Venues = []VenuePayload{
			{Name: "Sim Venue A", TotalCapacity: len(roster.Guests)},
			{Name: "Sim Venue B", TotalCapacity: len(roster.Guests) / 2},
		}
	}

	resp, err := client.Post(ctx, url, request)
	if err != nil {
		return "failed"
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack RunAck
		if err := json.Unmarshal(body, &ack); err == nil && ack.Status == "accepted" {
			return "accepted"
		}
		return "accepted"
	case StatusConflict:
		// A run for this event is already in flight.
		return "rejected"
	default:
		return "failed"
	}
}

// fetchGroups polls the groups endpoint until the event has groups or the
// deadline passes. An event small enough to be postponed legitimately never
// produces groups, so an empty result after the deadline is returned as-is.
func fetchGroups(ctx context.Context, client *HTTPClient, baseURL, eventID string) ([]GroupView, error) {
	url := baseURL + "/events/" + eventID + "/groups"
	deadline := time.Now().Add(GroupPollDeadline)

	for {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch groups: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read groups response: %w", err)
		}
		if resp.StatusCode != StatusOK {
			return nil, fmt.Errorf("groups request failed with status: %d", resp.StatusCode)
		}

		var groups []GroupView
		if err := json.Unmarshal(body, &groups); err != nil {
			return nil, fmt.Errorf("failed to decode groups: %w", err)
		}
		if len(groups) > 0 || time.Now().After(deadline) {
			return groups, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(GroupPollInterval):
		}
	}
}
