// Package compose drives the worksheet engine from a YAML manifest, producing
// a rendered document without a hosting page.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"wsc/dom"
	"wsc/dragdrop"
	"wsc/state"
	"wsc/submit"
	"wsc/utils/images"
	"wsc/worksheet"
)

// capture records submissions instead of navigating, making form content
// available for template expansion.
type capture struct {
	submissions []SubmissionDefinition
}

func (c *capture) Navigate(action string, form *submit.Form) error {
	c.submissions = append(c.submissions, SubmissionDefinition{Action: action, Values: form.Values()})
	return nil
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compose")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no manifest has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	manifest, err := LoadManifest(src)
	if err != nil {
		return err
	}

	tmpl := defaultTemplate
	if path := cmd.String("template"); len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to read output template from %q: %w", path, err)
		}
		tmpl = string(data)
	}

	log.Info("Composition starting", zap.String("manifest", src),
		zap.Int("tasks", manifest.Worksheet.Tasks), zap.Int("solutions", manifest.Worksheet.Solutions))
	defer func(start time.Time) {
		log.Info("Composition completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	data, err := process(ctx, manifest, src, tmpl, log)
	if err != nil {
		return err
	}

	if env.Rpt != nil {
		env.Rpt.StoreData("compose/output.html", data)
	}
	return write(data, dst, cmd.Bool("overwrite"), log)
}

// process runs the engine over the manifest and expands the output template.
func process(ctx context.Context, m *Manifest, src, tmpl string, log *zap.Logger) ([]byte, error) {
	env := state.EnvFromContext(ctx)

	nav := &capture{}
	host := submit.HostForm{
		TaskCount:     m.Worksheet.Tasks,
		SolutionCount: m.Worksheet.Solutions,
		PDFURL:        m.Worksheet.PDFURL,
		DocxURL:       m.Worksheet.DocxURL,
	}

	engine, err := worksheet.Setup(ctx, host, env.Cfg, log, worksheet.Options{Navigator: nav})
	if err != nil {
		return nil, fmt.Errorf("unable to set up worksheet engine: %w", err)
	}

	for _, c := range m.Regions {
		r, ok := engine.Manager.Region(c.Field)
		if !ok {
			return nil, fmt.Errorf("manifest seeds unknown field %q", c.Field)
		}
		if err := r.Editor.SetHTML(c.HTML); err != nil {
			return nil, fmt.Errorf("unable to seed field %q: %w", c.Field, err)
		}
	}

	for i, d := range m.Drops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := applyDrop(ctx, engine, d); err != nil {
			return nil, fmt.Errorf("unable to apply drop %d into %q: %w", i+1, d.Field, err)
		}
	}

	if len(m.Worksheet.SaveURL) > 0 {
		if err := engine.Save(m.Worksheet.SaveURL); err != nil {
			return nil, err
		}
	}
	if m.Export != nil {
		format := submit.ExportFormat(m.Export.Format)
		if format != submit.FormatPDF && format != submit.FormatDocx {
			return nil, fmt.Errorf("unknown export format %q", m.Export.Format)
		}
		if err := engine.Export(submit.DownloadMode(m.Export.Mode), format); err != nil {
			return nil, err
		}
	}

	if env.Rpt != nil {
		var trees strings.Builder
		for _, r := range engine.Manager.Regions() {
			trees.WriteString(r.FieldID())
			trees.WriteString(":\n")
			trees.WriteString(dom.DumpTree(r.Editor.Root()))
			trees.WriteString("\n")
		}
		env.Rpt.StoreData("compose/regions.txt", []byte(trees.String()))
	}

	content := engine.Serialize()
	values := Values{
		Generated:   time.Now(),
		SourceFile:  strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Submissions: nav.submissions,
	}
	for _, r := range engine.Manager.Regions() {
		values.Fields = append(values.Fields, FieldDefinition{
			ID:      r.FieldID(),
			Role:    r.Role.String(),
			Number:  r.Number,
			Content: content[r.FieldID()],
		})
	}

	out, err := expandTemplate(tmpl, values)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func applyDrop(ctx context.Context, engine *worksheet.Engine, d Drop) error {
	p := dragdrop.Payload{
		Type:         dragdrop.ItemType(d.Type),
		PrimaryValue: d.Value,
		HTMLFragment: d.HTML,
	}

	if len(d.File) > 0 {
		data, err := os.ReadFile(d.File)
		if err != nil {
			return fmt.Errorf("unable to read dropped file: %w", err)
		}
		if p.Type == dragdrop.TypeCustomUpload && len(p.PrimaryValue) == 0 {
			up, err := images.NormalizeUpload(filepath.Base(d.File), data)
			if err != nil {
				return err
			}
			p.PrimaryValue = up.DataURL
		} else {
			p.Files = append(p.Files, dragdrop.File{Name: filepath.Base(d.File), Data: data})
		}
	}

	if d.At != nil {
		r, ok := engine.Manager.Region(d.Field)
		if !ok {
			return fmt.Errorf("unknown field")
		}
		r.Editor.SetSelection(*d.At)
	}
	return engine.Drop(ctx, d.Field, p, nil)
}

func write(data []byte, dst string, overwrite bool, log *zap.Logger) error {
	if len(dst) == 0 {
		_, err := os.Stdout.Write(data)
		return err
	}

	if _, err := os.Stat(dst); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", dst)
		}
		log.Warn("Overwriting existing file", zap.String("file", dst))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	log.Info("Writing output", zap.String("file", dst), zap.Int("size", len(data)))
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
