package worksheet_test

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"wsc/config"
	"wsc/dragdrop"
	"wsc/providers"
	"wsc/region"
	"wsc/submit"
	"wsc/worksheet"
)

func testConfig() *config.Config {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		panic(err)
	}
	cfg.Editor.DefaultTab = "emoji" // keep setup off the network
	return cfg
}

type recorder struct {
	actions []string
	values  []map[string]string
}

func (r *recorder) Navigate(action string, form *submit.Form) error {
	r.actions = append(r.actions, action)
	r.values = append(r.values, form.Values())
	return nil
}

func newEngine(t *testing.T, host submit.HostForm, opts worksheet.Options) *worksheet.Engine {
	t.Helper()
	e, err := worksheet.Setup(context.Background(), host, testConfig(), zap.NewNop(), opts)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return e
}

func TestSetup_WiresRegionsAndDefaultTab(t *testing.T) {
	e := newEngine(t, submit.HostForm{TaskCount: 2, SolutionCount: 1}, worksheet.Options{})

	if got := len(e.Manager.Regions()); got != 3 {
		t.Fatalf("regions = %d", got)
	}
	if e.Tabs.Active() != providers.TabEmoji {
		t.Errorf("active tab = %q", e.Tabs.Active())
	}
	p, _ := e.Tabs.Provider(providers.TabEmoji)
	if p.Panel().State() != providers.StateResults {
		t.Errorf("default tab state = %v", p.Panel().State())
	}
}

func TestSetup_SeedsRegions(t *testing.T) {
	opts := worksheet.Options{
		Seed: func(role region.Role, number int) string {
			if role == region.RoleTask {
				return "<p>task seed</p>"
			}
			return ""
		},
	}
	e := newEngine(t, submit.HostForm{TaskCount: 1, SolutionCount: 1}, opts)

	if got := e.Serialize()["input-1"]; got != "<p>task seed</p>" {
		t.Errorf("task content = %q", got)
	}
	if got := e.Serialize()["solution-input-1"]; got != "" {
		t.Errorf("solution content = %q", got)
	}
}

func TestEngine_DropIntoRegion(t *testing.T) {
	e := newEngine(t, submit.HostForm{TaskCount: 1}, worksheet.Options{})

	err := e.Drop(context.Background(), "input-1", dragdrop.Payload{
		Type:         dragdrop.TypeImage,
		PrimaryValue: "https://cdn/x.png",
	}, nil)
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	got := e.Serialize()["input-1"]
	if !strings.Contains(got, `src="https://cdn/x.png"`) {
		t.Errorf("serialized = %q", got)
	}
	if e.Resizer.BoundCount() != 1 {
		t.Errorf("dropped image not resizable")
	}
}

func TestEngine_DropUnknownRegion(t *testing.T) {
	e := newEngine(t, submit.HostForm{TaskCount: 1}, worksheet.Options{})
	err := e.Drop(context.Background(), "input-9", dragdrop.Payload{Type: dragdrop.TypeImage, PrimaryValue: "x"}, nil)
	if err == nil {
		t.Error("expected error for unknown region")
	}
}

func TestEngine_DropPanelItem(t *testing.T) {
	e := newEngine(t, submit.HostForm{TaskCount: 1}, worksheet.Options{})

	p, _ := e.Tabs.Provider(providers.TabEmoji)
	items := p.Panel().Items()
	if len(items) == 0 {
		t.Fatal("emoji panel empty")
	}

	if err := e.DropItem(context.Background(), "input-1", items[0], nil); err != nil {
		t.Fatalf("DropItem() error = %v", err)
	}
	if !strings.Contains(e.Serialize()["input-1"], `data-emoji="true"`) {
		t.Errorf("emoji not embedded: %q", e.Serialize()["input-1"])
	}
}

func TestEngine_SaveAndExport(t *testing.T) {
	rec := &recorder{}
	host := submit.HostForm{
		TaskCount: 1,
		PDFURL:    "https://host/pdf",
		DocxURL:   "https://host/docx",
	}
	e := newEngine(t, host, worksheet.Options{Navigator: rec})

	if err := e.Manager.Regions()[0].Editor.InsertText(0, "hello"); err != nil {
		t.Fatal(err)
	}
	if err := e.Save("https://host/save"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.values[0]["input-1"] != "<p>hello</p>" {
		t.Errorf("submitted = %q", rec.values[0]["input-1"])
	}

	if err := e.Export("plain", submit.FormatDocx); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if rec.actions[1] != "https://host/docx" {
		t.Errorf("export action = %q", rec.actions[1])
	}
	if rec.values[1]["download_format"] != "docx" {
		t.Errorf("format carrier = %q", rec.values[1]["download_format"])
	}
}
