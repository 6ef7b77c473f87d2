package providers

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"wsc/assets"
	"wsc/config"
	"wsc/dragdrop"
)

// Emoji serves the bundled emoji catalog. Search filters by name and by the
// character itself, capped to the configured panel size.
type Emoji struct {
	cfg    config.EmojiProviderConfig
	panel  *Panel
	search *searcher
	log    *zap.Logger
}

func NewEmoji(cfg config.EmojiProviderConfig, log *zap.Logger) *Emoji {
	p := &Emoji{
		cfg:   cfg,
		panel: NewPanel(),
		log:   log,
	}
	// Local filtering, no dwell needed.
	p.search = newSearcher(p.panel, p.fetch, cfg.Debounce(), 0, log)
	return p
}

func (p *Emoji) Panel() *Panel {
	return p.panel
}

func (p *Emoji) Init(ctx context.Context) error {
	p.search.SearchNow(ctx, "")
	return p.panel.Err()
}

func (p *Emoji) Search(ctx context.Context, query string) {
	p.search.Search(ctx, query)
}

func (p *Emoji) Wait() {
	p.search.Wait()
}

func (p *Emoji) fetch(_ context.Context, query string) ([]Candidate, error) {
	catalog, err := assets.Emojis()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	cands := make([]Candidate, 0, p.cfg.Limit)
	for _, e := range catalog {
		if len(query) > 0 &&
			!strings.Contains(strings.ToLower(e.Name), query) &&
			!strings.Contains(e.Char, query) {
			continue
		}
		cands = append(cands, Candidate{
			Key:   e.Char,
			Title: e.Name,
			Payload: dragdrop.Payload{
				Type:         dragdrop.TypeEmoji,
				PrimaryValue: e.Char,
			},
		})
		if len(cands) >= p.cfg.Limit {
			break
		}
	}
	return cands, nil
}
