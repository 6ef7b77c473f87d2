package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wsc/config"
	"wsc/dragdrop"
)

// Stickers searches a sticker service. Every result carries a still
// rendition for the tile with the animated one held back as a fallback:
// the still loads faster, and drops use whichever the tile ended up with.
type Stickers struct {
	cfg     config.RemoteProviderConfig
	client  *http.Client
	limiter *rate.Limiter
	panel   *Panel
	search  *searcher
	log     *zap.Logger

	mu     sync.Mutex
	loaded map[string]bool
}

type stickerRendition struct {
	URL string `json:"url"`
}

type stickerHit struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Images struct {
		FixedWidthStill stickerRendition `json:"fixed_width_still"`
		FixedWidth      stickerRendition `json:"fixed_width"`
	} `json:"images"`
}

type stickerSearchResponse struct {
	Data []stickerHit `json:"data"`
}

func NewStickers(cfg config.RemoteProviderConfig, client *http.Client, log *zap.Logger) *Stickers {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Stickers{
		cfg:     cfg,
		client:  client,
		limiter: newLimiter(cfg.RatePerSec),
		panel:   NewPanel(),
		log:     log,
		loaded:  make(map[string]bool),
	}
	p.search = newSearcher(p.panel, p.fetch, cfg.Debounce(), cfg.MinDwell(), log)
	// Dropping a dead sticker releases its key so a later search can show
	// it again.
	p.panel.OnRemove(func(key string) {
		p.mu.Lock()
		delete(p.loaded, key)
		p.mu.Unlock()
	})
	return p
}

func (p *Stickers) Panel() *Panel {
	return p.panel
}

func (p *Stickers) Init(ctx context.Context) error {
	p.search.SearchNow(ctx, p.cfg.DefaultQuery)
	return p.panel.Err()
}

func (p *Stickers) Search(ctx context.Context, query string) {
	p.search.Search(ctx, normalizeQuery(query, p.cfg.DefaultQuery, p.cfg.MinQueryLen))
}

func (p *Stickers) Wait() {
	p.search.Wait()
}

func (p *Stickers) fetch(ctx context.Context, query string) ([]Candidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("api_key", string(p.cfg.APIKey))
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(p.cfg.Limit))

	var resp stickerSearchResponse
	if err := getJSON(ctx, p.client, p.cfg.Endpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("unable to search stickers: %w", err)
	}

	// A fresh result set starts a fresh dedupe generation.
	p.mu.Lock()
	p.loaded = make(map[string]bool)
	p.mu.Unlock()

	cands := make([]Candidate, 0, len(resp.Data))
	for _, hit := range resp.Data {
		display := hit.Images.FixedWidthStill.URL
		fallback := ""
		if len(display) == 0 {
			display = hit.Images.FixedWidth.URL
		} else if len(hit.Images.FixedWidth.URL) > 0 {
			fallback = hit.Images.FixedWidth.URL
		}
		if len(display) == 0 {
			continue
		}

		key := "giphy-" + hit.ID
		p.mu.Lock()
		dup := p.loaded[key]
		if !dup {
			p.loaded[key] = true
		}
		p.mu.Unlock()
		if dup {
			continue
		}

		cands = append(cands, Candidate{
			Key:         key,
			Title:       hit.Title,
			DisplayURL:  display,
			FallbackURL: fallback,
			Payload: dragdrop.Payload{
				Type:         dragdrop.TypeImage,
				PrimaryValue: display,
			},
		})
	}
	return cands, nil
}
