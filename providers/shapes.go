package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	natsort "github.com/maruel/natural"
	"go.uber.org/zap"

	"wsc/assets"
	"wsc/config"
	"wsc/dom"
	"wsc/dragdrop"
	"wsc/embeds"
	"wsc/utils/images"
)

// Shapes serves the bundled design shape library. Each shape is rasterized
// to a PNG data URL once and cached; drag payloads carry the ready-to-paste
// background span so a drop does not have to re-process the vector.
type Shapes struct {
	cfg      config.ShapesProviderConfig
	registry *embeds.Registry
	panel    *Panel
	log      *zap.Logger

	mu        sync.Mutex
	processed map[string]Candidate
	order     []string // natural label order of processed keys
}

func NewShapes(cfg config.ShapesProviderConfig, registry *embeds.Registry, log *zap.Logger) *Shapes {
	return &Shapes{
		cfg:       cfg,
		registry:  registry,
		panel:     NewPanel(),
		log:       log,
		processed: make(map[string]Candidate),
	}
}

func (p *Shapes) Panel() *Panel {
	return p.panel
}

// Init rasterizes the library and shows it. Individual shapes that fail to
// rasterize are skipped, the whole panel only fails when the library itself
// cannot be loaded.
func (p *Shapes) Init(ctx context.Context) error {
	p.panel.Loading()

	library, err := assets.Shapes()
	if err != nil {
		p.panel.Fail(err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, shape := range library {
		if err := ctx.Err(); err != nil {
			p.panel.Fail(err)
			return err
		}
		key := "shape-" + slug.Make(shape.Label)
		if _, done := p.processed[key]; done {
			continue
		}
		cand, err := p.process(key, shape)
		if err != nil {
			p.log.Warn("Unable to rasterize shape",
				zap.String("label", shape.Label), zap.Error(err))
			continue
		}
		p.processed[key] = cand
		p.order = append(p.order, shape.Label)
	}
	sort.Sort(natsort.StringSlice(p.order))

	p.renderLocked("")
	return nil
}

// Search filters by label. Shape search is local and immediate, there is no
// debounce window.
func (p *Shapes) Search(_ context.Context, query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderLocked(query)
}

func (p *Shapes) renderLocked(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	cands := make([]Candidate, 0, len(p.order))
	for _, label := range p.order {
		if len(query) > 0 && !strings.Contains(strings.ToLower(label), query) {
			continue
		}
		if cand, ok := p.processed["shape-"+slug.Make(label)]; ok {
			cands = append(cands, cand)
			if len(cands) >= p.cfg.Limit {
				break
			}
		}
	}
	p.panel.Render(cands)
}

func (p *Shapes) process(key string, shape assets.Shape) (Candidate, error) {
	img, err := images.RasterizeSVGToImage([]byte(shape.SVG), p.cfg.RasterSize, p.cfg.RasterSize)
	if err != nil {
		return Candidate{}, err
	}
	pngURL, err := images.PNGDataURL(img)
	if err != nil {
		return Candidate{}, err
	}

	span, err := p.registry.Create(embeds.BackgroundShape, pngURL)
	if err != nil {
		return Candidate{}, fmt.Errorf("unable to build shape fragment: %w", err)
	}
	return Candidate{
		Key:        key,
		Title:      shape.Label,
		DisplayURL: pngURL,
		Payload: dragdrop.Payload{
			Type:         dragdrop.TypeBgShape,
			PrimaryValue: pngURL,
			HTMLFragment: dom.SerializeElement(span),
		},
	}, nil
}
