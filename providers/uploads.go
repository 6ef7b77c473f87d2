package providers

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"wsc/archive"
	"wsc/config"
	"wsc/dragdrop"
	"wsc/utils/images"
)

// Uploads holds user-provided images. Files are normalized into inline data
// URLs and deduplicated by content, adding the same picture twice keeps one
// tile. A watch directory, when configured, feeds the panel automatically.
type Uploads struct {
	cfg   config.UploadsConfig
	panel *Panel
	log   *zap.Logger

	mu    sync.Mutex
	seen  map[string]bool // keyed by data URL content
	cands []Candidate
}

func NewUploads(cfg config.UploadsConfig, log *zap.Logger) *Uploads {
	return &Uploads{
		cfg:   cfg,
		panel: NewPanel(),
		log:   log,
		seen:  make(map[string]bool),
	}
}

func (p *Uploads) Panel() *Panel {
	return p.panel
}

// Init renders whatever was added before the tab became active.
func (p *Uploads) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panel.Render(p.cands)
	return nil
}

// AddFile normalizes one image and adds it to the panel. Oversized files,
// non-images and exact duplicates are rejected.
func (p *Uploads) AddFile(name string, data []byte) error {
	if int64(len(data)) > p.cfg.MaxBytes {
		return fmt.Errorf("upload %q exceeds %d bytes", name, p.cfg.MaxBytes)
	}
	up, err := images.NormalizeUpload(name, data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen[up.DataURL] {
		p.log.Debug("Duplicate upload ignored", zap.String("name", name))
		return nil
	}
	p.seen[up.DataURL] = true
	p.cands = append(p.cands, Candidate{
		Key:        "upload-img-" + uuid.NewString(),
		Title:      name,
		DisplayURL: up.DataURL,
		Payload: dragdrop.Payload{
			Type:         dragdrop.TypeCustomUpload,
			PrimaryValue: up.DataURL,
		},
	})
	p.panel.Render(p.cands)
	return nil
}

// AddArchive ingests every image from a zip bundle, using the same size and
// content gates as individual files. Non-image entries are skipped quietly so
// mixed bundles remain usable.
func (p *Uploads) AddArchive(path string) error {
	count := 0
	err := archive.Walk(path, "", func(bundle string, f *zip.File) error {
		if f.FileHeader.UncompressedSize64 > uint64(p.cfg.MaxBytes) {
			p.log.Warn("Skipping oversized bundle entry",
				zap.String("bundle", filepath.Base(bundle)), zap.String("file", f.FileHeader.Name))
			return nil
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open bundle entry %q: %w", f.FileHeader.Name, err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read bundle entry %q: %w", f.FileHeader.Name, err)
		}
		if !filetype.IsImage(data) {
			p.log.Debug("Skipping bundle entry, not an image", zap.String("file", f.FileHeader.Name))
			return nil
		}
		if err := p.AddFile(filepath.Base(f.FileHeader.Name), data); err != nil {
			p.log.Debug("Ignoring bundle entry", zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to process bundle %q: %w", path, err)
	}
	p.log.Info("Bundle processed", zap.String("bundle", filepath.Base(path)), zap.Int("images", count))
	return nil
}

// Watch ingests image files appearing in the configured directory until the
// context ends. Without a watch directory it returns immediately.
func (p *Uploads) Watch(ctx context.Context) error {
	if len(p.cfg.WatchDir) == 0 {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create upload watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.cfg.WatchDir); err != nil {
		return fmt.Errorf("unable to watch %q: %w", p.cfg.WatchDir, err)
	}
	p.log.Info("Watching for uploads", zap.String("dir", p.cfg.WatchDir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			p.ingest(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("Upload watcher error", zap.Error(err))
		}
	}
}

func (p *Uploads) ingest(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if filepath.Ext(path) == ".zip" {
		// bundle size is not limited, entries are gated individually
		if err := p.AddArchive(path); err != nil {
			p.log.Warn("Unable to process watched bundle", zap.String("file", path), zap.Error(err))
		}
		return
	}
	if info.Size() > p.cfg.MaxBytes {
		p.log.Warn("Skipping oversized upload",
			zap.String("file", filepath.Base(path)), zap.Int64("size", info.Size()))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		p.log.Warn("Unable to read upload", zap.String("file", path), zap.Error(err))
		return
	}
	if err := p.AddFile(filepath.Base(path), data); err != nil {
		p.log.Debug("Ignoring watched file", zap.String("file", path), zap.Error(err))
	}
}
