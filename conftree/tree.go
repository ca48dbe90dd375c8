package conftree

import (
	"path"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/logging"
	"github.com/sergev/spectran/result"
	"go.uber.org/zap"
)

// Tree gives access to the configuration of one open device.
// It only borrows the driver and the device handle.
type Tree struct {
	Driver driver.Driver
	Device driver.Device
}

// Root returns the handle of the configuration root.
func (t Tree) Root() (driver.Config, error) {
	var c driver.Config
	if code := t.Driver.ConfigRoot(&t.Device, &c); code != result.OK {
		return c, errors.FromCode(errors.KindConfigLookup, "config root", code)
	}
	return c, nil
}

// HealthRoot returns the handle of the health tree root.
func (t Tree) HealthRoot() (driver.Config, error) {
	var c driver.Config
	if code := t.Driver.ConfigHealth(&t.Device, &c); code != result.OK {
		return c, errors.FromCode(errors.KindConfigLookup, "config health", code)
	}
	return c, nil
}

// Children returns the direct children of a group, in driver order.
// A group without children yields an empty list.
func (t Tree) Children(group driver.Config) ([]driver.Config, error) {
	var out []driver.Config
	var c driver.Config
	code := t.Driver.ConfigFirst(&t.Device, &group, &c)
	if code == result.ErrorNotFound {
		return out, nil
	}
	if code != result.OK {
		return nil, errors.FromCode(errors.KindConfigLookup, "config first", code)
	}
	for code == result.OK {
		out = append(out, c)
		code = t.Driver.ConfigNext(&t.Device, &group, &c)
	}
	return out, nil
}

// Find resolves a '/'-separated path below root.
func (t Tree) Find(root driver.Config, p string) (driver.Config, error) {
	var c driver.Config
	if code := t.Driver.ConfigFind(&t.Device, &root, &c, p); code != result.OK {
		return c, errors.New(errors.KindConfigLookup, "config find").Path(p).Code(code).Build()
	}
	return c, nil
}

// GetName returns the short name of a node.
func (t Tree) GetName(c driver.Config) (string, error) {
	var name string
	if code := t.Driver.ConfigGetName(&t.Device, &c, &name); code != result.OK {
		return "", errors.FromCode(errors.KindConfigRead, "config get name", code)
	}
	return name, nil
}

// Info returns the metadata of a node.
func (t Tree) Info(c driver.Config) (Meta, error) {
	info := driver.NewConfigInfo()
	if code := t.Driver.ConfigGetInfo(&t.Device, &c, info); code != result.OK {
		return Meta{}, errors.FromCode(errors.KindConfigLookup, "config get info", code)
	}
	return metaFromInfo(info), nil
}

// GetFloat reads a NUMBER node.
func (t Tree) GetFloat(c driver.Config) (float64, error) {
	var v float64
	if code := t.Driver.ConfigGetFloat(&t.Device, &c, &v); code != result.OK {
		return 0, errors.FromCode(errors.KindConfigRead, "config get float", code)
	}
	return v, nil
}

// GetInteger reads a node through the integer getter.
func (t Tree) GetInteger(c driver.Config) (int64, error) {
	var v int64
	if code := t.Driver.ConfigGetInteger(&t.Device, &c, &v); code != result.OK {
		return 0, errors.FromCode(errors.KindConfigRead, "config get integer", code)
	}
	return v, nil
}

// GetBool reads a BOOL node. Trigger buttons, which refuse to be
// read with ERROR_INVALID_CONFIG, read as false.
func (t Tree) GetBool(c driver.Config) (bool, error) {
	var v int64
	code := t.Driver.ConfigGetInteger(&t.Device, &c, &v)
	switch code {
	case result.OK:
		return v != 0, nil
	case result.ErrorInvalidConfig:
		return false, nil
	}
	return false, errors.FromCode(errors.KindConfigRead, "config get bool", code)
}

// GetString reads a STRING or ENUM node.
func (t Tree) GetString(c driver.Config) (string, error) {
	var v string
	if code := t.Driver.ConfigGetString(&t.Device, &c, &v); code != result.OK {
		return "", errors.FromCode(errors.KindConfigRead, "config get string", code)
	}
	return v, nil
}

// SetFloat writes a NUMBER node. A WARNING answer is returned as the
// code with a nil error; ERROR answers become a config_set_rejected error.
func (t Tree) SetFloat(c driver.Config, v float64) (result.Code, error) {
	return checkSet("config set float", "", v, t.Driver.ConfigSetFloat(&t.Device, &c, v))
}

// SetInteger writes a node through the integer setter.
func (t Tree) SetInteger(c driver.Config, v int64) (result.Code, error) {
	return checkSet("config set integer", "", v, t.Driver.ConfigSetInteger(&t.Device, &c, v))
}

// SetBool writes a BOOL node as 0 or 1.
func (t Tree) SetBool(c driver.Config, v bool) (result.Code, error) {
	var i int64
	if v {
		i = 1
	}
	return checkSet("config set bool", "", v, t.Driver.ConfigSetInteger(&t.Device, &c, i))
}

// SetString writes a STRING or ENUM node.
func (t Tree) SetString(c driver.Config, v string) (result.Code, error) {
	return checkSet("config set string", "", v, t.Driver.ConfigSetString(&t.Device, &c, v))
}

func checkSet(op, p string, v any, code result.Code) (result.Code, error) {
	switch result.Classify(code).Band {
	case result.BandOK, result.BandWarning:
		return code, nil
	}
	return code, errors.New(errors.KindConfigSet, op).Path(p).Value(v).Code(code).Build()
}

// Walk reads the subtree rooted at c into a variant tree.
func (t Tree) Walk(c driver.Config) (Node, error) {
	return t.walk(c, "", true)
}

// walk reads the node c below the group at parent. Paths are relative
// to the walked root, whose own name is not part of them.
func (t Tree) walk(c driver.Config, parent string, root bool) (Node, error) {
	meta, err := t.Info(c)
	if err != nil {
		return nil, withPath(err, parent)
	}
	p := parent
	if !root {
		p = path.Join(parent, meta.Name)
	}

	var node Node
	switch meta.Kind {
	case KindGroup:
		children, err := t.Children(c)
		if err != nil {
			return nil, withPath(err, p)
		}
		g := &Group{Info: meta, Children: make([]Node, 0, len(children))}
		for _, child := range children {
			n, err := t.walk(child, p, false)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, n)
		}
		return g, nil
	case KindNumber:
		v, e := t.GetFloat(c)
		node, err = &Number{Info: meta, Value: v}, e
	case KindBool:
		v, e := t.GetBool(c)
		node, err = &Bool{Info: meta, Value: v}, e
	case KindString:
		v, e := t.GetString(c)
		node, err = &String{Info: meta, Value: v}, e
	case KindEnum:
		v, e := t.GetString(c)
		node, err = &Enum{Info: meta, Value: v}, e
	default:
		return nil, errors.New(errors.KindUnsupportedKind, "config walk").
			Path(p).Detail("kind %s", meta.Kind).Build()
	}
	if err != nil {
		return nil, withPath(err, p)
	}
	logging.For("conftree").Debug("config read", zap.String("path", p), zap.Any("value", Value(node)))
	return node, nil
}

func withPath(err error, p string) error {
	if e, ok := err.(*errors.Error); ok && e.Path == "" {
		e.Path = p
	}
	return err
}
