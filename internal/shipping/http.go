package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type HTTPClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) GetRates(ctx context.Context, addr Address, parcels []Parcel) ([]Rate, error) {
	body, err := json.Marshal(map[string]any{"address": addr, "parcels": parcels})
	if err != nil {
		return nil, err
	}
	var out struct {
		Rates []Rate `json:"rates"`
	}
	if err := c.post(ctx, "/v1/rates", body, &out); err != nil {
		return nil, err
	}
	return out.Rates, nil
}

func (c *HTTPClient) CreateShipment(ctx context.Context, rateID string) (Shipment, error) {
	body, err := json.Marshal(map[string]string{"rate_id": rateID})
	if err != nil {
		return Shipment{}, err
	}
	var out Shipment
	if err := c.post(ctx, "/v1/shipments", body, &out); err != nil {
		return Shipment{}, err
	}
	return out, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("shipping: %s status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
