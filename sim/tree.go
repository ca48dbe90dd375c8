package sim

import (
	"strings"

	"github.com/sergev/spectran/driver"
)

// Node is one entry of the simulated configuration tree.
type Node struct {
	Name            string
	Title           string
	Unit            string
	Options         string // enum choices separated by ';'
	Type            driver.ConfigType
	Min, Max, Step  float64
	DisabledOptions int64

	Float   float64
	Integer int64
	Text    string

	// Button marks a BOOL trigger: reading it fails with
	// ERROR_INVALID_CONFIG and writing 0 is rejected.
	Button   bool
	Triggers int

	Children []*Node
}

// Group returns a GROUP node.
func Group(name, title string, children ...*Node) *Node {
	return &Node{Name: name, Title: title, Type: driver.TypeGroup, Children: children}
}

// Number returns a NUMBER node limited to [min, max].
func Number(name, title, unit string, value, min, max, step float64) *Node {
	return &Node{
		Name: name, Title: title, Unit: unit, Type: driver.TypeNumber,
		Float: value, Min: min, Max: max, Step: step,
	}
}

// Bool returns a BOOL node.
func Bool(name, title string, value bool) *Node {
	n := &Node{Name: name, Title: title, Type: driver.TypeBool}
	if value {
		n.Integer = 1
	}
	return n
}

// Button returns a write-only BOOL trigger.
func Button(name, title string) *Node {
	return &Node{Name: name, Title: title, Type: driver.TypeBool, Button: true}
}

// String returns a STRING node.
func String(name, title, value string) *Node {
	return &Node{Name: name, Title: title, Type: driver.TypeString, Text: value}
}

// Enum returns an ENUM node; options are separated by ';'.
func Enum(name, title, value, options string) *Node {
	return &Node{Name: name, Title: title, Type: driver.TypeEnum, Text: value, Options: options}
}

// Blob returns a BLOB node, which the session layer does not support.
func Blob(name, title string) *Node {
	return &Node{Name: name, Title: title, Type: driver.TypeBlob}
}

// Lookup finds a descendant by '/'-separated path.
func (n *Node) Lookup(path string) *Node {
	cur := n
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		var next *Node
		for _, c := range cur.Children {
			if c.Name == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func (n *Node) hasOption(s string) bool {
	for _, opt := range strings.Split(n.Options, ";") {
		if opt == s {
			return true
		}
	}
	return false
}

// DemoConfig returns a configuration tree shaped like a receiver's.
func DemoConfig() *Node {
	return Group("root", "Root",
		Group("main", "Main",
			Number("centerfreq", "Center Frequency", "Hz", 2.44e9, 1e6, 6e9, 1),
			Number("reflevel", "Reference Level", "dBm", -20, -100, 10, 0.1),
			Number("spanfreq", "Span", "Hz", 50e6, 1e3, 245e6, 1),
			Enum("decimation", "Decimation", "Full", "Full;1 / 2;1 / 4;1 / 8;1 / 16"),
		),
		Group("calibration", "Calibration",
			Enum("rffilter", "RF Filter", "Auto", "Auto;Bypass;Off;Auto Extended"),
			Enum("preamp", "Preamp", "Auto", "Auto;None;Amp;Preamp;Both"),
			Button("calibrationreload", "Reload Calibration Data"),
		),
		Group("device", "Device",
			Enum("outputformat", "Output Format", "iq", "iq;spectra;both;auto"),
			Enum("receiverclock", "Receiver Clock", "92MHz", "92MHz;122MHz;184MHz;245MHz"),
			Enum("triggeredge", "Trigger Edge", "High", "Low;High"),
			Enum("triggerflag", "Trigger Flag", "C0", "C0;C1;C2;C3"),
			Bool("gaincontrol", "Automatic Gain Control", false),
			String("name", "Device Name", "Spectran V6"),
		),
	)
}

// DemoHealth returns a health tree shaped like a receiver's.
func DemoHealth() *Node {
	return Group("health", "Health",
		Number("rx1iqsamplessecond", "Rx1 IQ Samples/s", "1/s", 0, 0, 1e10, 1),
		Number("errors", "Errors", "", 0, 0, 1e12, 1),
		Number("errorssecond", "Errors/s", "1/s", 0, 0, 1e12, 1),
		Number("usboverflowssecond", "USB Overflows/s", "1/s", 0, 0, 1e12, 1),
		Number("mainusbbytessecond", "Main USB Bytes/s", "B/s", 0, 0, 1e12, 1),
		Number("temperature", "Temperature", "°C", 41.5, -40, 125, 0.1),
	)
}
