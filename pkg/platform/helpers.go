package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// getJSON performs a GET request against a platform API and decodes the JSON
// body into dest. A 404 reports found=false with no error; other non-200
// statuses and decode failures are reported by the caller as upstream errors.
func getJSON(ctx context.Context, client *Client, reqURL string, dest interface{}) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return true, nil
}

// imageDims is anything exposing pixel dimensions, used by largestImage.
type imageDims struct {
	URL    string
	Width  int
	Height int
}

// largestImage returns the URL of the image with the greatest pixel area.
// Platforms list covers in arbitrary order; the biggest one is the most
// useful thumbnail. Returns "" for an empty list.
func largestImage(images []imageDims) string {
	var (
		bestURL  string
		bestArea = -1
	)
	for _, img := range images {
		area := img.Width * img.Height
		if area > bestArea {
			bestArea = area
			bestURL = img.URL
		}
	}
	return bestURL
}
