// Package geo resolves UK postcodes to administrative geographies and
// attaches the results to organisation records.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound means the postcode isn't in the lookup service's data.
var ErrNotFound = errors.New("postcode not found")

// PostcodeInfo is what the lookup service knows about one postcode:
// geography codes keyed by area type (plus "<type>_name" entries), and
// the postcode's centroid.
type PostcodeInfo struct {
	Attributes map[string]interface{}
	Lat        float64
	Long       float64
}

// Lookup resolves a postcode. Implementations must be safe for
// concurrent use.
type Lookup interface {
	Lookup(ctx context.Context, postcode string) (*PostcodeInfo, error)
}

const DefaultURLTemplate = "https://postcodes.findthatcharity.uk/postcodes/%s.json"

// HTTPLookup queries a findthatcharity-style postcode JSON API.
type HTTPLookup struct {
	// URLTemplate has one %s, replaced with the escaped postcode.
	URLTemplate string
	Client      *http.Client
}

func NewHTTPLookup(urlTemplate string) *HTTPLookup {
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	return &HTTPLookup{
		URLTemplate: urlTemplate,
		Client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *HTTPLookup) Lookup(ctx context.Context, postcode string) (*PostcodeInfo, error) {
	u := fmt.Sprintf(l.URLTemplate, url.PathEscape(postcode))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postcode lookup: http %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Attributes map[string]interface{} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("postcode lookup: %w", err)
	}

	info := &PostcodeInfo{Attributes: payload.Data.Attributes}
	if lat, ok := payload.Data.Attributes["lat"].(float64); ok {
		info.Lat = lat
	}
	if long, ok := payload.Data.Attributes["long"].(float64); ok {
		info.Long = long
	}
	return info, nil
}
