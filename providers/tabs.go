package providers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Tab identifies one asset panel.
type Tab string

const (
	TabImages  Tab = "images"
	TabSticker Tab = "sticker"
	TabEmoji   Tab = "emoji"
	TabDesign  Tab = "design"
	TabUpload  Tab = "upload"
)

// Provider is the common surface of all asset panels.
type Provider interface {
	Init(ctx context.Context) error
	Panel() *Panel
}

// Tabs coordinates panel activation. A provider only initializes the first
// time its tab becomes active, switching back to an already loaded tab does
// not reload it.
type Tabs struct {
	log *zap.Logger

	mu          sync.Mutex
	providers   map[Tab]Provider
	initialized map[Tab]bool
	active      Tab
}

func NewTabs(log *zap.Logger) *Tabs {
	return &Tabs{
		log:         log,
		providers:   make(map[Tab]Provider),
		initialized: make(map[Tab]bool),
	}
}

// Register installs the provider behind a tab.
func (t *Tabs) Register(tab Tab, p Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.providers[tab] = p
}

// Activate switches to the tab, initializing its provider on first use. An
// empty panel from an earlier failed load is retried.
func (t *Tabs) Activate(ctx context.Context, tab Tab) error {
	t.mu.Lock()
	p, ok := t.providers[tab]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("unknown tab %q", tab)
	}
	t.active = tab
	needInit := !t.initialized[tab]
	if needInit {
		t.initialized[tab] = true
	}
	t.mu.Unlock()

	if !needInit {
		// A failed first load left nothing behind, give it another try.
		if p.Panel().State() != StateError {
			return nil
		}
	}
	t.log.Debug("Initializing tab", zap.String("tab", string(tab)))
	if err := p.Init(ctx); err != nil {
		return fmt.Errorf("unable to initialize %q tab: %w", tab, err)
	}
	return nil
}

// Active returns the currently selected tab.
func (t *Tabs) Active() Tab {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Provider returns the provider behind a tab.
func (t *Tabs) Provider(tab Tab) (Provider, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.providers[tab]
	return p, ok
}

// Initialized reports whether the tab's provider has loaded.
func (t *Tabs) Initialized(tab Tab) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized[tab]
}
