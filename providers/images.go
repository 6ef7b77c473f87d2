package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wsc/config"
	"wsc/dragdrop"
)

// Images searches a stock photo service. Responses carry a hits array, each
// hit offering a web-sized rendition and a larger fallback.
type Images struct {
	cfg     config.RemoteProviderConfig
	client  *http.Client
	limiter *rate.Limiter
	panel   *Panel
	search  *searcher
	log     *zap.Logger
}

type imageHit struct {
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	Tags          string `json:"tags"`
}

type imageSearchResponse struct {
	Hits []imageHit `json:"hits"`
}

func NewImages(cfg config.RemoteProviderConfig, client *http.Client, log *zap.Logger) *Images {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Images{
		cfg:     cfg,
		client:  client,
		limiter: newLimiter(cfg.RatePerSec),
		panel:   NewPanel(),
		log:     log,
	}
	p.search = newSearcher(p.panel, p.fetch, cfg.Debounce(), cfg.MinDwell(), log)
	return p
}

func (p *Images) Panel() *Panel {
	return p.panel
}

// Init loads the default result set, bypassing the debounce window.
func (p *Images) Init(ctx context.Context) error {
	p.search.SearchNow(ctx, p.cfg.DefaultQuery)
	return p.panel.Err()
}

// Search runs a debounced query. Input shorter than the configured minimum
// falls back to the default query.
func (p *Images) Search(ctx context.Context, query string) {
	p.search.Search(ctx, normalizeQuery(query, p.cfg.DefaultQuery, p.cfg.MinQueryLen))
}

// Wait flushes pending debounced searches, used during shutdown and tests.
func (p *Images) Wait() {
	p.search.Wait()
}

func (p *Images) fetch(ctx context.Context, query string) ([]Candidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", string(p.cfg.APIKey))
	q.Set("q", query)
	q.Set("image_type", "photo")
	q.Set("per_page", strconv.Itoa(p.cfg.Limit))
	if query == p.cfg.DefaultQuery {
		q.Set("category", "education")
	}

	var resp imageSearchResponse
	if err := getJSON(ctx, p.client, p.cfg.Endpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("unable to search images: %w", err)
	}

	cands := make([]Candidate, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		src := hit.WebformatURL
		if len(src) == 0 {
			src = hit.LargeImageURL
		}
		if len(src) == 0 {
			continue
		}
		cands = append(cands, Candidate{
			Key:        src,
			Title:      hit.Tags,
			DisplayURL: src,
			Payload: dragdrop.Payload{
				Type:         dragdrop.TypeImage,
				PrimaryValue: src,
			},
		})
	}
	return cands, nil
}

func newLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
