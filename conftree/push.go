package conftree

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/logging"
	"github.com/sergev/spectran/result"
	"go.uber.org/zap"
)

// WriteOnly lists trigger paths that are never written by Push.
// Writing one makes the device act, e.g. reload calibration data.
var WriteOnly = []string{
	"calibration/calibrationreload",
}

func isWriteOnly(p string) bool {
	for _, w := range WriteOnly {
		if w == p {
			return true
		}
	}
	return false
}

// Assignment is one path/value pair of a flattened document.
type Assignment struct {
	Path  string
	Value any
}

// Warning records a value the driver accepted with a WARNING code,
// typically after clamping it.
type Warning struct {
	Path  string
	Value any
	Code  result.Code
}

func (w Warning) String() string {
	return fmt.Sprintf("%s = %v: %s", w.Path, w.Value, w.Code)
}

// Report summarizes a push.
type Report struct {
	Applied  []string
	Skipped  []string
	Warnings []Warning
}

// Set writes one value at a path below root, choosing the setter from
// the node's kind. A WARNING answer is returned as a *Warning.
func (t Tree) Set(root driver.Config, p string, value any) (*Warning, error) {
	c, err := t.Find(root, p)
	if err != nil {
		return nil, err
	}
	meta, err := t.Info(c)
	if err != nil {
		return nil, withPath(err, p)
	}
	return t.set(c, meta, p, value)
}

func (t Tree) set(c driver.Config, meta Meta, p string, value any) (*Warning, error) {
	var code result.Code
	switch meta.Kind {
	case KindNumber:
		f, ok := toFloat(value)
		if !ok {
			return nil, malformed(p, value, meta.Kind)
		}
		code = t.Driver.ConfigSetFloat(&t.Device, &c, f)
	case KindBool:
		b, ok := toBool(value)
		if !ok {
			return nil, malformed(p, value, meta.Kind)
		}
		var i int64
		if b {
			i = 1
		}
		code = t.Driver.ConfigSetInteger(&t.Device, &c, i)
	case KindString, KindEnum:
		s, ok := toString(value, meta.Kind == KindString)
		if !ok {
			return nil, malformed(p, value, meta.Kind)
		}
		code = t.Driver.ConfigSetString(&t.Device, &c, s)
	default:
		return nil, errors.New(errors.KindUnsupportedKind, "config set").
			Path(p).Value(value).Detail("kind %s", meta.Kind).Build()
	}

	if _, err := checkSet("config set", p, value, code); err != nil {
		return nil, err
	}
	if code.IsWarning() {
		return &Warning{Path: p, Value: value, Code: code}, nil
	}
	return nil, nil
}

func malformed(p string, value any, kind Kind) error {
	return errors.New(errors.KindConfigSet, "config set").Path(p).Value(value).
		Code(result.ErrorValueMalformed).Detail("%T is not a %s value", value, kind).Build()
}

// Push writes the assignments in order below root. Write-only triggers
// are skipped. The first ERROR stops the push; WARNINGs are collected
// in the report and logged. The report covers the assignments handled
// before an error.
func (t Tree) Push(root driver.Config, assignments []Assignment) (*Report, error) {
	rep := &Report{}
	for _, a := range assignments {
		if isWriteOnly(a.Path) {
			rep.Skipped = append(rep.Skipped, a.Path)
			continue
		}
		w, err := t.Set(root, a.Path, a.Value)
		if err != nil {
			return rep, err
		}
		if w != nil {
			logging.For("conftree").Warn("config value adjusted",
				zap.String("path", w.Path), zap.Any("value", w.Value), zap.Stringer("code", w.Code))
			rep.Warnings = append(rep.Warnings, *w)
		}
		rep.Applied = append(rep.Applied, a.Path)
	}
	return rep, nil
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	if f, ok := toFloat(v); ok {
		return f != 0, true
	}
	return false, false
}

func toString(v any, formatNumbers bool) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if !formatNumbers {
		return "", false
	}
	if n, ok := v.(json.Number); ok {
		return n.String(), true
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64), true
	}
	return "", false
}
