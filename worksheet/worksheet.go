// Package worksheet wires the composition engine together: regions,
// embeds, asset panels, drag-drop, resizing and submission, configured the
// way the host page describes the document.
package worksheet

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"wsc/config"
	"wsc/dragdrop"
	"wsc/embeds"
	"wsc/providers"
	"wsc/region"
	"wsc/resize"
	"wsc/submit"
)

// Options tweak the wiring for embedding and tests.
type Options struct {
	// HTTPClient serves the remote providers. nil uses the default client.
	HTTPClient *http.Client
	// Seed supplies initial region markup, typically the server-rendered
	// field content.
	Seed region.SeedFunc
	// Navigator performs the full-page submission. nil installs a
	// navigator that only logs, useful headlessly.
	Navigator submit.Navigator
	// WatchUploads starts the upload directory watcher when the
	// configuration names one.
	WatchUploads bool
}

// Engine is the assembled composer for one worksheet.
type Engine struct {
	cfg *config.Config
	log *zap.Logger

	Registry   *embeds.Registry
	Manager    *region.Manager
	Resizer    *resize.Observer
	Drops      *dragdrop.Coordinator
	Tabs       *providers.Tabs
	Uploads    *providers.Uploads
	Submission *submit.Coordinator
}

// Setup builds the engine for the host-described document and activates
// the default asset tab.
func Setup(ctx context.Context, host submit.HostForm, cfg *config.Config, log *zap.Logger, opts Options) (*Engine, error) {
	registry := embeds.NewRegistry()

	var mopts []region.Option
	if opts.Seed != nil {
		mopts = append(mopts, region.WithSeed(opts.Seed))
	}
	manager := region.NewManager(registry, log, mopts...)
	if err := manager.Initialize(ctx, host.TaskCount, host.SolutionCount); err != nil {
		return nil, fmt.Errorf("unable to initialize regions: %w", err)
	}

	resizer := resize.NewObserver(cfg.Resize, log)
	for _, r := range manager.Regions() {
		resizer.Attach(r)
	}

	tabs := providers.NewTabs(log)
	uploads := providers.NewUploads(cfg.Uploads, log)
	tabs.Register(providers.TabImages, providers.NewImages(cfg.Providers.Images, opts.HTTPClient, log))
	tabs.Register(providers.TabSticker, providers.NewStickers(cfg.Providers.Stickers, opts.HTTPClient, log))
	tabs.Register(providers.TabEmoji, providers.NewEmoji(cfg.Providers.Emoji, log))
	tabs.Register(providers.TabDesign, providers.NewShapes(cfg.Providers.Shapes, registry, log))
	tabs.Register(providers.TabUpload, uploads)

	if err := tabs.Activate(ctx, providers.Tab(cfg.Editor.DefaultTab)); err != nil {
		// The default panel failing to load must not kill the editor,
		// the host can retry by switching tabs.
		log.Warn("Default tab failed to load", zap.Error(err))
	}

	nav := opts.Navigator
	if nav == nil {
		nav = submit.NavigatorFunc(func(action string, form *submit.Form) error {
			log.Info("Submission captured", zap.String("action", action))
			return nil
		})
	}

	e := &Engine{
		cfg:        cfg,
		log:        log,
		Registry:   registry,
		Manager:    manager,
		Resizer:    resizer,
		Drops:      dragdrop.NewCoordinator(registry, resizer, log),
		Tabs:       tabs,
		Uploads:    uploads,
		Submission: submit.NewCoordinator(host, manager, nav, log),
	}

	if opts.WatchUploads && len(cfg.Uploads.WatchDir) > 0 {
		go func() {
			if err := uploads.Watch(ctx); err != nil && ctx.Err() == nil {
				log.Warn("Upload watcher stopped", zap.Error(err))
			}
		}()
	}
	return e, nil
}

// Drop dispatches a payload into the region behind fieldID.
func (e *Engine) Drop(ctx context.Context, fieldID string, p dragdrop.Payload, at *dragdrop.Point) error {
	r, ok := e.Manager.Region(fieldID)
	if !ok {
		return fmt.Errorf("unknown region %q", fieldID)
	}
	return e.Drops.Drop(ctx, r, p, at)
}

// DropItem dispatches a rendered panel item into a region, the programmatic
// equivalent of dragging the tile.
func (e *Engine) DropItem(ctx context.Context, fieldID string, item *providers.Item, at *dragdrop.Point) error {
	return e.Drop(ctx, fieldID, item.Payload, at)
}

// Serialize captures every region keyed by field id.
func (e *Engine) Serialize() map[string]string {
	return e.Manager.SerializeAll()
}

// Save submits the current content to the given URL.
func (e *Engine) Save(targetURL string) error {
	return e.Submission.Submit(targetURL)
}

// Export submits through the selected download mode and format.
func (e *Engine) Export(mode submit.DownloadMode, format submit.ExportFormat) error {
	return e.Submission.SetExportMode(mode, format)
}
