// Package submit carries worksheet content back to the host: region markup
// is copied into hidden form fields and the form is posted through a
// host-provided navigator.
package submit

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"wsc/region"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatDocx ExportFormat = "docx"
)

// DownloadMode is the host-defined menu entry the export was picked from,
// carried through verbatim.
type DownloadMode string

// HostForm is what the host page tells us about the form: how many fields
// of each role it rendered and where each export format posts to.
type HostForm struct {
	TaskCount     int
	SolutionCount int
	PDFURL        string
	DocxURL       string
}

// Navigator performs the actual full-page submission. Tests plug in a
// recorder, the real host navigates away.
type Navigator interface {
	Navigate(action string, form *Form) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(action string, form *Form) error

func (f NavigatorFunc) Navigate(action string, form *Form) error {
	return f(action, form)
}

// Form is the hidden-carrier form, an element tree matching what the host
// page renders.
type Form struct {
	el     *etree.Element
	action string
}

// NewForm builds the form with one empty carrier per region field.
func NewForm(host HostForm) *Form {
	f := &Form{el: etree.NewElement("form")}
	f.el.CreateAttr("method", "post")
	for i := 1; i <= host.TaskCount; i++ {
		f.addCarrier(fmt.Sprintf("input-%d", i))
	}
	for i := 1; i <= host.SolutionCount; i++ {
		f.addCarrier(fmt.Sprintf("solution-input-%d", i))
	}
	return f
}

func (f *Form) addCarrier(name string) *etree.Element {
	input := f.el.CreateElement("input")
	input.CreateAttr("type", "hidden")
	input.CreateAttr("id", name)
	input.CreateAttr("name", name)
	input.CreateAttr("value", "")
	return input
}

// Element exposes the underlying tree.
func (f *Form) Element() *etree.Element {
	return f.el
}

func (f *Form) Action() string {
	return f.action
}

func (f *Form) SetAction(action string) {
	f.action = action
}

func (f *Form) carrier(name string) *etree.Element {
	for _, input := range f.el.SelectElements("input") {
		if input.SelectAttrValue("name", "") == name {
			return input
		}
	}
	return nil
}

// SetValue writes a carrier, creating it when missing.
func (f *Form) SetValue(name, value string) {
	input := f.carrier(name)
	if input == nil {
		input = f.addCarrier(name)
	}
	input.CreateAttr("value", value)
}

// Value reads a carrier.
func (f *Form) Value(name string) (string, bool) {
	input := f.carrier(name)
	if input == nil {
		return "", false
	}
	return input.SelectAttrValue("value", ""), true
}

// Remove drops a carrier if present.
func (f *Form) Remove(name string) {
	if input := f.carrier(name); input != nil {
		f.el.RemoveChild(input)
	}
}

// Values snapshots every carrier.
func (f *Form) Values() map[string]string {
	out := make(map[string]string)
	for _, input := range f.el.SelectElements("input") {
		out[input.SelectAttrValue("name", "")] = input.SelectAttrValue("value", "")
	}
	return out
}

// clearRegionCarriers blanks every region field so content from an earlier
// submission cannot leak into this one.
func (f *Form) clearRegionCarriers() {
	for _, input := range f.el.SelectElements("input") {
		name := input.SelectAttrValue("name", "")
		if strings.HasPrefix(name, "input-") || strings.HasPrefix(name, "solution-input-") {
			input.CreateAttr("value", "")
		}
	}
}

// Coordinator drives submissions and exports.
type Coordinator struct {
	host    HostForm
	form    *Form
	manager *region.Manager
	nav     Navigator
	log     *zap.Logger
}

func NewCoordinator(host HostForm, manager *region.Manager, nav Navigator, log *zap.Logger) *Coordinator {
	return &Coordinator{
		host:    host,
		form:    NewForm(host),
		manager: manager,
		nav:     nav,
		log:     log,
	}
}

// Form exposes the carrier form.
func (c *Coordinator) Form() *Form {
	return c.form
}

// Submit clears the carriers, repopulates them from the current region
// content, points the form at targetURL and navigates.
func (c *Coordinator) Submit(targetURL string) error {
	c.form.clearRegionCarriers()
	for id, content := range c.manager.SerializeAll() {
		c.form.SetValue(id, content)
	}
	c.form.SetAction(targetURL)
	c.log.Debug("Submitting worksheet", zap.String("action", targetURL))
	if err := c.nav.Navigate(targetURL, c.form); err != nil {
		return fmt.Errorf("unable to submit worksheet: %w", err)
	}
	return nil
}

// SetExportMode replaces the mode and format carriers, picks the matching
// export URL and submits.
func (c *Coordinator) SetExportMode(mode DownloadMode, format ExportFormat) error {
	c.form.Remove("download_mode")
	c.form.Remove("download_format")
	c.form.SetValue("download_mode", string(mode))
	c.form.SetValue("download_format", string(format))

	action := c.host.DocxURL
	if format == FormatPDF {
		action = c.host.PDFURL
	}
	c.log.Debug("Exporting worksheet",
		zap.String("mode", string(mode)), zap.String("format", string(format)))
	return c.Submit(action)
}
