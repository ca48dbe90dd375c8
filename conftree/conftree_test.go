package conftree

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/result"
	"github.com/sergev/spectran/sim"
)

func openTree(t *testing.T, d *sim.Driver) (Tree, driver.Config) {
	t.Helper()
	var h driver.Handle
	if code := d.Init(driver.MemorySmall); code != result.OK {
		t.Fatalf("Init = %v", code)
	}
	if code := d.Open(&h); code != result.OK {
		t.Fatalf("Open = %v", code)
	}
	var dev driver.Device
	mode := driver.ModeString(driver.SpectranV6, driver.ModeRTSA)
	if code := d.OpenDevice(&h, &dev, mode, d.Devices[0].Serial); code != result.OK {
		t.Fatalf("OpenDevice = %v", code)
	}
	tree := Tree{Driver: d, Device: dev}
	root, err := tree.Root()
	if err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	return tree, root
}

func walkDocument(t *testing.T, tree Tree, root driver.Config) map[string]any {
	t.Helper()
	n, err := tree.Walk(root)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	return Document(n)
}

func TestWalk(t *testing.T) {
	tree, root := openTree(t, sim.NewDemo())
	n, err := tree.Walk(root)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	g, ok := n.(*Group)
	if !ok {
		t.Fatalf("root is %T, want *Group", n)
	}
	if len(g.Children) != 3 {
		t.Fatalf("root has %d children", len(g.Children))
	}

	main := g.Child("main").(*Group)
	freq, ok := main.Child("centerfreq").(*Number)
	if !ok || freq.Value != 2.44e9 || freq.Info.Unit != "Hz" {
		t.Errorf("centerfreq = %+v", main.Child("centerfreq"))
	}
	dec, ok := main.Child("decimation").(*Enum)
	if !ok || dec.Value != "Full" || dec.Info.Options == "" {
		t.Errorf("decimation = %+v", main.Child("decimation"))
	}

	cal := g.Child("calibration").(*Group)
	button, ok := cal.Child("calibrationreload").(*Bool)
	if !ok || button.Value {
		t.Errorf("calibrationreload = %+v, want false BOOL", cal.Child("calibrationreload"))
	}
}

func TestDocumentFields(t *testing.T) {
	tree, root := openTree(t, sim.NewDemo())
	doc := walkDocument(t, tree, root)

	freq := doc["main"].(map[string]any)["centerfreq"].(map[string]any)
	for _, key := range []string{"title", "value", "unit", "type", "minValue", "maxValue", "stepValue", "disabledOptions"} {
		if _, ok := freq[key]; !ok {
			t.Errorf("NUMBER record lacks %q", key)
		}
	}
	if _, ok := freq["options"]; ok {
		t.Error("NUMBER record has options")
	}
	if freq["type"] != "NUMBER" {
		t.Errorf("type = %v", freq["type"])
	}

	enum := doc["calibration"].(map[string]any)["rffilter"].(map[string]any)
	if _, ok := enum["options"]; !ok {
		t.Error("ENUM record lacks options")
	}
	if _, ok := enum["unit"]; ok {
		t.Error("ENUM record has unit")
	}
}

func TestPushRoundTrip(t *testing.T) {
	d := sim.NewDemo()
	tree, root := openTree(t, d)
	before := walkDocument(t, tree, root)

	rep, err := tree.Push(root, Flatten(before))
	if err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("warnings: %v", rep.Warnings)
	}
	if !reflect.DeepEqual(rep.Skipped, []string{"calibration/calibrationreload"}) {
		t.Errorf("Skipped = %v", rep.Skipped)
	}
	if n := d.Root.Lookup("calibration/calibrationreload").Triggers; n != 0 {
		t.Errorf("calibration reload triggered %d times", n)
	}

	after := walkDocument(t, tree, root)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("document changed by push:\nbefore %v\nafter  %v", before, after)
	}
}

func TestPushChildNamedValue(t *testing.T) {
	root := sim.Group("config", "Config",
		sim.Group("gain", "Gain",
			sim.Number("value", "Gain Value", "dB", 5, 0, 30, 1),
		),
	)
	d := sim.New(root, sim.DemoHealth(), sim.DeviceEntry{Serial: "SIM0002"})
	tree, r := openTree(t, d)

	doc := walkDocument(t, tree, r)
	doc["gain"].(map[string]any)["value"].(map[string]any)["value"] = 12.0

	rep, err := tree.Push(r, Flatten(doc))
	if err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if !reflect.DeepEqual(rep.Applied, []string{"gain/value"}) {
		t.Errorf("Applied = %v", rep.Applied)
	}
	if v := d.Root.Lookup("gain/value").Float; v != 12 {
		t.Errorf("gain/value = %v, want 12", v)
	}
}

func TestPushWarningContinues(t *testing.T) {
	d := sim.NewDemo()
	tree, root := openTree(t, d)

	rep, err := tree.Push(root, []Assignment{
		{Path: "main/reflevel", Value: 50},
		{Path: "main/spanfreq", Value: 20e6},
	})
	if err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("Warnings = %v", rep.Warnings)
	}
	w := rep.Warnings[0]
	if w.Path != "main/reflevel" || w.Code != result.WarningValueAdjusted || w.Value != 50 {
		t.Errorf("warning = %+v", w)
	}
	if len(rep.Applied) != 2 {
		t.Errorf("Applied = %v", rep.Applied)
	}

	c, _ := tree.Find(root, "main/reflevel")
	if v, err := tree.GetFloat(c); err != nil || v != 10 {
		t.Errorf("reflevel = %v, %v; want clamped 10", v, err)
	}
}

func TestPushErrorStops(t *testing.T) {
	d := sim.NewDemo()
	tree, root := openTree(t, d)

	rep, err := tree.Push(root, []Assignment{
		{Path: "main/decimation", Value: "1 / 3"},
		{Path: "main/reflevel", Value: -30.0},
	})
	if !errors.HasKind(err, errors.KindConfigSet) {
		t.Fatalf("Push() error = %v, want config_set_rejected", err)
	}
	e := err.(*errors.Error)
	if e.Path != "main/decimation" || e.Code != result.ErrorValueInvalid || e.Value != "1 / 3" {
		t.Errorf("error = %+v", e)
	}
	if len(rep.Applied) != 0 {
		t.Errorf("Applied = %v", rep.Applied)
	}
	if n := d.CallCount("ConfigSetFloat"); n != 0 {
		t.Errorf("ConfigSetFloat called %d times after the failure", n)
	}
}

func TestSetCoercion(t *testing.T) {
	d := sim.NewDemo()
	tree, root := openTree(t, d)

	tests := []struct {
		path  string
		value any
		ok    bool
	}{
		{"main/centerfreq", json.Number("1e9"), true},
		{"main/centerfreq", int64(900000000), true},
		{"main/centerfreq", "1e9", false},
		{"device/gaincontrol", true, true},
		{"device/gaincontrol", 1, true},
		{"device/gaincontrol", "yes", false},
		{"device/name", 42, true},
		{"device/outputformat", "spectra", true},
		{"device/outputformat", 3, false},
	}
	for _, tt := range tests {
		d.ResetCalls()
		_, err := tree.Set(root, tt.path, tt.value)
		if tt.ok && err != nil {
			t.Errorf("Set(%s, %#v) error: %v", tt.path, tt.value, err)
		}
		if !tt.ok {
			code, _ := errors.CodeOf(err)
			if code != result.ErrorValueMalformed {
				t.Errorf("Set(%s, %#v) = %v, want ERROR_VALUE_MALFORMED", tt.path, tt.value, err)
			}
			for _, call := range d.Calls() {
				if call == "ConfigSetFloat" || call == "ConfigSetInteger" || call == "ConfigSetString" {
					t.Errorf("Set(%s, %#v) reached the driver", tt.path, tt.value)
				}
			}
		}
	}
	if got := d.Root.Lookup("device/name").Text; got != "42" {
		t.Errorf("device/name = %q", got)
	}
}

func TestLookupFailure(t *testing.T) {
	tree, root := openTree(t, sim.NewDemo())
	_, err := tree.Set(root, "main/nothing", 1.0)
	if !errors.HasKind(err, errors.KindConfigLookup) {
		t.Errorf("Set() error = %v, want config_lookup_failure", err)
	}
}

func TestWalkUnsupportedKind(t *testing.T) {
	root := sim.Group("root", "Root", sim.Group("main", "Main", sim.Blob("firmware", "Firmware")))
	tree, c := openTree(t, sim.New(root, nil, sim.DeviceEntry{Serial: "X"}))
	_, err := tree.Walk(c)
	if !errors.HasKind(err, errors.KindUnsupportedKind) {
		t.Fatalf("Walk() error = %v, want unsupported_config_kind", err)
	}
	if e := err.(*errors.Error); e.Path != "main/firmware" {
		t.Errorf("Path = %q", e.Path)
	}
}

func TestWalkEmptyGroup(t *testing.T) {
	root := sim.Group("root", "Root", sim.Group("empty", "Empty"))
	tree, c := openTree(t, sim.New(root, nil, sim.DeviceEntry{Serial: "X"}))
	doc := walkDocument(t, tree, c)
	empty, ok := doc["empty"].(map[string]any)
	if !ok || len(empty) != 0 {
		t.Errorf("empty group = %#v", doc["empty"])
	}
}

func TestWalkReadFailure(t *testing.T) {
	d := sim.NewDemo()
	tree, root := openTree(t, d)
	d.Force("ConfigGetFloat", result.ErrorBusy)
	_, err := tree.Walk(root)
	if !errors.HasKind(err, errors.KindConfigRead) {
		t.Errorf("Walk() error = %v, want config_read_failure", err)
	}
}

func TestWalkInfoFailure(t *testing.T) {
	d := sim.NewDemo()
	tree, root := openTree(t, d)
	d.Force("ConfigGetInfo", result.ErrorBusy)
	_, err := tree.Walk(root)
	if !errors.HasKind(err, errors.KindConfigLookup) {
		t.Errorf("Walk() error = %v, want config_lookup_failure", err)
	}
	if code, _ := errors.CodeOf(err); code != result.ErrorBusy {
		t.Errorf("code = %v, want ERROR_BUSY", code)
	}
}

func TestSetInfoFailure(t *testing.T) {
	d := sim.NewDemo()
	tree, root := openTree(t, d)
	d.Force("ConfigGetInfo", result.ErrorBusy)
	_, err := tree.Set(root, "main/reflevel", -10.0)
	if !errors.HasKind(err, errors.KindConfigLookup) {
		t.Errorf("Set() error = %v, want config_lookup_failure", err)
	}
}

func TestHealth(t *testing.T) {
	tree, _ := openTree(t, sim.NewDemo())
	h, err := tree.HealthRoot()
	if err != nil {
		t.Fatalf("HealthRoot() error: %v", err)
	}
	doc := walkDocument(t, tree, h)
	if _, ok := doc["usboverflowssecond"]; !ok {
		t.Errorf("health document = %v", doc)
	}
}

func TestFlatten(t *testing.T) {
	doc := map[string]any{
		"version": 3,
		"main": map[string]any{
			"reflevel":   map[string]any{"value": -20.0},
			"centerfreq": map[string]any{"value": 1e9, "unit": "Hz"},
		},
		"device": map[string]any{
			"sub": map[string]any{"name": map[string]any{"value": "x"}},
		},
		"gain": map[string]any{
			"value": map[string]any{"title": "Gain", "value": 5.0},
			"auto":  map[string]any{"value": true},
		},
	}
	got := Flatten(doc)
	want := []Assignment{
		{Path: "device/sub/name", Value: "x"},
		{Path: "gain/auto", Value: true},
		{Path: "gain/value", Value: 5.0},
		{Path: "main/centerfreq", Value: 1e9},
		{Path: "main/reflevel", Value: -20.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestDocumentCodecs(t *testing.T) {
	tree, root := openTree(t, sim.NewDemo())
	doc := walkDocument(t, tree, root)
	want := Flatten(doc)

	for _, format := range []Format{FormatJSON, FormatTOML} {
		var buf bytes.Buffer
		if err := EncodeDocument(&buf, doc, format); err != nil {
			t.Fatalf("%s: EncodeDocument() error: %v", format, err)
		}
		back, err := DecodeDocument(&buf, format)
		if err != nil {
			t.Fatalf("%s: DecodeDocument() error: %v", format, err)
		}
		got := Flatten(back)
		if len(got) != len(want) {
			t.Fatalf("%s: %d assignments, want %d", format, len(got), len(want))
		}
		for i := range want {
			if got[i].Path != want[i].Path {
				t.Errorf("%s: path %q, want %q", format, got[i].Path, want[i].Path)
			}
		}
		// Decoded documents push back cleanly.
		if _, err := tree.Push(root, got); err != nil {
			t.Errorf("%s: Push() error: %v", format, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("TOML"); err != nil || f != FormatTOML {
		t.Errorf("ParseFormat(TOML) = %v, %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat(yaml) succeeded")
	}
	if FormatOf("dump.toml") != FormatTOML || FormatOf("dump.json") != FormatJSON {
		t.Error("FormatOf() guessed wrong")
	}
}
