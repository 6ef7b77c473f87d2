package submit_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"wsc/embeds"
	"wsc/region"
	"wsc/submit"
)

type recorder struct {
	actions []string
	values  []map[string]string
}

func (r *recorder) Navigate(action string, form *submit.Form) error {
	r.actions = append(r.actions, action)
	r.values = append(r.values, form.Values())
	return nil
}

func newCoordinator(t *testing.T, host submit.HostForm) (*submit.Coordinator, *region.Manager, *recorder) {
	t.Helper()
	m := region.NewManager(embeds.NewRegistry(), zap.NewNop())
	if err := m.Initialize(context.Background(), host.TaskCount, host.SolutionCount); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	return submit.NewCoordinator(host, m, rec, zap.NewNop()), m, rec
}

func TestNewForm_CarriersPerField(t *testing.T) {
	f := submit.NewForm(submit.HostForm{TaskCount: 2, SolutionCount: 1})

	for _, name := range []string{"input-1", "input-2", "solution-input-1"} {
		if v, ok := f.Value(name); !ok || v != "" {
			t.Errorf("carrier %s = %q, %v", name, v, ok)
		}
	}
	if _, ok := f.Value("input-3"); ok {
		t.Error("unexpected carrier input-3")
	}
}

func TestSubmit_PopulatesCarriers(t *testing.T) {
	host := submit.HostForm{TaskCount: 2, SolutionCount: 1}
	c, m, rec := newCoordinator(t, host)

	if err := m.Regions()[0].Editor.InsertText(0, "first task"); err != nil {
		t.Fatal(err)
	}
	if err := c.Submit("https://host/save"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(rec.actions) != 1 || rec.actions[0] != "https://host/save" {
		t.Fatalf("actions = %v", rec.actions)
	}
	got := rec.values[0]
	if got["input-1"] != "<p>first task</p>" {
		t.Errorf("input-1 = %q", got["input-1"])
	}
	// untouched regions post empty values
	if got["input-2"] != "" || got["solution-input-1"] != "" {
		t.Errorf("empty regions = %q / %q", got["input-2"], got["solution-input-1"])
	}
	if c.Form().Action() != "https://host/save" {
		t.Errorf("action = %q", c.Form().Action())
	}
}

func TestSubmit_ClearsStaleContent(t *testing.T) {
	host := submit.HostForm{TaskCount: 1}
	c, m, rec := newCoordinator(t, host)

	ed := m.Regions()[0].Editor
	if err := ed.InsertText(0, "draft"); err != nil {
		t.Fatal(err)
	}
	if err := c.Submit("https://host/save"); err != nil {
		t.Fatal(err)
	}

	// region content is wiped, the second submission must not resend it
	if err := ed.SetHTML(""); err != nil {
		t.Fatal(err)
	}
	if err := c.Submit("https://host/save"); err != nil {
		t.Fatal(err)
	}
	if got := rec.values[1]["input-1"]; got != "" {
		t.Errorf("stale content resent: %q", got)
	}
}

func TestSetExportMode(t *testing.T) {
	host := submit.HostForm{
		TaskCount: 1,
		PDFURL:    "https://host/pdf",
		DocxURL:   "https://host/docx",
	}
	c, _, rec := newCoordinator(t, host)

	if err := c.SetExportMode("with-solutions", submit.FormatPDF); err != nil {
		t.Fatalf("SetExportMode() error = %v", err)
	}
	if rec.actions[0] != "https://host/pdf" {
		t.Errorf("action = %q", rec.actions[0])
	}
	got := rec.values[0]
	if got["download_mode"] != "with-solutions" || got["download_format"] != "pdf" {
		t.Errorf("carriers = %v", got)
	}

	// switching replaces the carriers instead of stacking them
	if err := c.SetExportMode("plain", submit.FormatDocx); err != nil {
		t.Fatal(err)
	}
	if rec.actions[1] != "https://host/docx" {
		t.Errorf("action = %q", rec.actions[1])
	}
	got = rec.values[1]
	if got["download_mode"] != "plain" || got["download_format"] != "docx" {
		t.Errorf("carriers = %v", got)
	}
	values := c.Form().Values()
	if len(values) != 3 { // input-1 + mode + format
		t.Errorf("carrier count = %d: %v", len(values), values)
	}
}
