package providers

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"wsc/config"
	"wsc/dragdrop"
)

func newEmoji() *Emoji {
	return NewEmoji(config.EmojiProviderConfig{DebounceMS: 0, Limit: 154}, zap.NewNop())
}

func TestEmoji_InitShowsCatalog(t *testing.T) {
	p := newEmoji()
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if p.Panel().State() != StateResults {
		t.Fatalf("state = %v", p.Panel().State())
	}
	if n := p.Panel().Len(); n == 0 || n > 154 {
		t.Errorf("len = %d, want 1..154", n)
	}

	it := p.Panel().Items()[0]
	if it.Payload.Type != dragdrop.TypeEmoji || len(it.Payload.PrimaryValue) == 0 {
		t.Errorf("payload = %+v", it.Payload)
	}
}

func TestEmoji_SearchByName(t *testing.T) {
	p := newEmoji()
	p.Search(context.Background(), "Thumbs")
	p.Wait()

	items := p.Panel().Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want thumbs up and thumbs down", len(items))
	}
	for _, it := range items {
		if it.Payload.PrimaryValue != "👍" && it.Payload.PrimaryValue != "👎" {
			t.Errorf("unexpected match %q", it.Payload.PrimaryValue)
		}
	}
}

func TestEmoji_SearchByCharacter(t *testing.T) {
	p := newEmoji()
	p.Search(context.Background(), "🔥")
	p.Wait()

	items := p.Panel().Items()
	if len(items) != 1 || items[0].Payload.PrimaryValue != "🔥" {
		t.Fatalf("items = %+v", items)
	}
}

func TestEmoji_NoMatches(t *testing.T) {
	p := newEmoji()
	p.Search(context.Background(), "zzzzzz")
	p.Wait()

	if p.Panel().State() != StateEmpty {
		t.Errorf("state = %v, want empty", p.Panel().State())
	}
}

func TestEmoji_CapHonored(t *testing.T) {
	p := NewEmoji(config.EmojiProviderConfig{Limit: 5}, zap.NewNop())
	if err := p.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Panel().Len() != 5 {
		t.Errorf("len = %d, want 5", p.Panel().Len())
	}
}
