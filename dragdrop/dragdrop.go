// Package dragdrop turns dropped assets into editor content. It resolves
// the drop position, dispatches on the payload's item type and performs the
// matching insertion.
package dragdrop

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"wsc/dom"
	"wsc/editor"
	"wsc/embeds"
	"wsc/region"
	"wsc/resize"
	"wsc/utils/images"
)

// ItemType is the drag payload discriminator, matching the "item-type"
// carrier the asset panels write on drag start.
type ItemType string

const (
	TypeImage        ItemType = "image"
	TypeCustomUpload ItemType = "custom-upload"
	TypeEmoji        ItemType = "emoji"
	TypeShape        ItemType = "shape"
	TypeBgShape      ItemType = "bg-shape"
)

// File is a native file carried by a drop.
type File struct {
	Name string
	Data []byte
}

// Payload mirrors the drag data transfer: the typed discriminator, the
// plain-text and HTML carriers, and any native files.
type Payload struct {
	Type         ItemType
	PrimaryValue string
	HTMLFragment string
	Files        []File
}

// Point is a drop location in host coordinates.
type Point struct {
	X, Y float64
}

// Coordinator dispatches drops into regions.
type Coordinator struct {
	registry *embeds.Registry
	resizer  *resize.Observer
	log      *zap.Logger
}

func NewCoordinator(registry *embeds.Registry, resizer *resize.Observer, log *zap.Logger) *Coordinator {
	return &Coordinator{registry: registry, resizer: resizer, log: log}
}

// Drop focuses the region, resolves the target index and performs the
// insertion the payload's type calls for. Unknown types without files are
// ignored.
func (c *Coordinator) Drop(ctx context.Context, r *region.Region, p Payload, at *Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ed := r.Editor
	ed.Focus()
	idx := c.resolveIndex(ed, at)

	switch p.Type {
	case TypeBgShape:
		if len(p.HTMLFragment) == 0 {
			break
		}
		if err := ed.PasteHTML(idx, p.HTMLFragment); err != nil {
			return err
		}
		ed.SetSelection(idx + 1)
		// Pasted markup bypasses the embed registry, rescan for
		// resizable spans.
		c.resizer.Scan(ed.Root())
		return nil

	case TypeCustomUpload:
		src := strings.TrimSpace(p.PrimaryValue)
		if len(src) == 0 {
			return nil
		}
		return c.insertImage(ed, idx, NormalizeSourceURL(src))

	case TypeImage:
		src := strings.TrimSpace(p.PrimaryValue)
		if len(src) == 0 {
			src = firstImageSrc(p.HTMLFragment)
		}
		if len(src) == 0 {
			return nil
		}
		return c.insertImage(ed, idx, NormalizeSourceURL(src))

	case TypeShape:
		// Legacy shape drops carry a prepared raster URL.
		return c.insertImage(ed, idx, p.PrimaryValue)

	case TypeEmoji:
		node, err := c.registry.Create(embeds.EmojiImage, p.PrimaryValue)
		if err != nil {
			if errors.Is(err, embeds.ErrEmptyValue) {
				return nil
			}
			return err
		}
		if err := ed.PasteHTML(idx, dom.SerializeElement(node)); err != nil {
			return err
		}
		ed.SetSelection(idx + 1)
		return nil
	}

	if len(p.Files) > 0 {
		return c.insertFiles(ctx, ed, idx, p.Files)
	}
	c.log.Debug("Ignoring drop", zap.String("type", string(p.Type)))
	return nil
}

func (c *Coordinator) resolveIndex(ed editor.Editor, at *Point) int {
	if at != nil {
		if cr, ok := ed.(editor.CaretResolver); ok {
			if idx, ok := cr.IndexFromPoint(at.X, at.Y); ok {
				return idx
			}
		}
	}
	if sel, ok := ed.Selection(); ok {
		return sel
	}
	return 0
}

func (c *Coordinator) insertImage(ed editor.Editor, idx int, src string) error {
	if err := ed.InsertEmbed(idx, embeds.CustomImage, src); err != nil {
		if errors.Is(err, embeds.ErrEmptyValue) {
			return nil
		}
		return err
	}
	ed.SetSelection(idx + 1)
	return nil
}

// insertFiles reserves an index per image file up front, decodes the files
// concurrently, then flushes the results in reservation order. The final
// visual order always matches the order the files arrived in, regardless of
// decode timing.
func (c *Coordinator) insertFiles(ctx context.Context, ed editor.Editor, idx int, files []File) error {
	type reservation struct {
		index int
		file  File
	}
	reserved := make([]reservation, 0, len(files))
	for _, f := range files {
		if !filetype.IsImage(f.Data) {
			c.log.Debug("Skipping non-image file drop", zap.String("name", f.Name))
			continue
		}
		reserved = append(reserved, reservation{index: idx, file: f})
		idx++
	}
	if len(reserved) == 0 {
		return nil
	}

	urls := make([]string, len(reserved))
	var wg sync.WaitGroup
	for i, res := range reserved {
		wg.Add(1)
		go func() {
			defer wg.Done()
			up, err := images.NormalizeUpload(res.file.Name, res.file.Data)
			if err != nil {
				c.log.Warn("Unable to process dropped file",
					zap.String("name", res.file.Name), zap.Error(err))
				return
			}
			urls[i] = up.DataURL
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	failed := 0
	for i, res := range reserved {
		if len(urls[i]) == 0 {
			failed++
			continue
		}
		if err := ed.InsertEmbed(res.index-failed, embeds.CustomImage, urls[i]); err != nil {
			return err
		}
	}
	return nil
}

// firstImageSrc digs an image source out of an HTML carrier, used when the
// plain-text carrier of an image drop is empty.
func firstImageSrc(fragment string) string {
	if len(fragment) == 0 {
		return ""
	}
	nodes, err := dom.ParseFragment(fragment)
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if img := findImage(n); img != nil {
			return img.SelectAttrValue("src", "")
		}
	}
	return ""
}

func findImage(el *etree.Element) *etree.Element {
	if el.Tag == "img" {
		return el
	}
	for _, child := range el.ChildElements() {
		if img := findImage(child); img != nil {
			return img
		}
	}
	return nil
}

// NormalizeSourceURL escapes a dropped source the way browsers encode URIs:
// reserved and unreserved characters pass through, everything else becomes
// percent-encoded UTF-8, and both quote characters are forced into escapes
// so the value is safe inside an attribute.
func NormalizeSourceURL(src string) string {
	const keep = ";,/?:@&=+$#-_.!~*'()"
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteByte(ch)
		case strings.IndexByte(keep, ch) >= 0:
			b.WriteByte(ch)
		default:
			b.WriteString(percentEncode(ch))
		}
	}
	out := strings.ReplaceAll(b.String(), "'", "%27")
	return strings.ReplaceAll(out, `"`, "%22")
}

const upperhex = "0123456789ABCDEF"

func percentEncode(ch byte) string {
	return string([]byte{'%', upperhex[ch>>4], upperhex[ch&0x0f]})
}
