package device

import (
	"github.com/sergev/spectran/conftree"
	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/handles"
	"github.com/sergev/spectran/result"
)

// ConfigTree walks the configuration tree.
func (s *Session) ConfigTree() (conftree.Node, error) {
	if !s.isOpen {
		return nil, s.notOpen("get config")
	}
	t := s.tree()
	root, err := t.Root()
	if err != nil {
		return nil, err
	}
	return t.Walk(root)
}

// Config returns the configuration as a document.
func (s *Session) Config() (map[string]any, error) {
	n, err := s.ConfigTree()
	if err != nil {
		return nil, err
	}
	return conftree.Document(n), nil
}

// HealthTree walks the health tree.
func (s *Session) HealthTree() (conftree.Node, error) {
	if !s.isOpen {
		return nil, s.notOpen("get health")
	}
	t := s.tree()
	root, err := t.HealthRoot()
	if err != nil {
		return nil, err
	}
	return t.Walk(root)
}

// Health returns the health values as a document.
func (s *Session) Health() (map[string]any, error) {
	n, err := s.HealthTree()
	if err != nil {
		return nil, err
	}
	return conftree.Document(n), nil
}

// PushConfig writes every leaf value of a document back into the device.
func (s *Session) PushConfig(doc map[string]any) (*conftree.Report, error) {
	return s.PushAssignments(conftree.Flatten(doc))
}

// PushAssignments writes path/value pairs in order.
func (s *Session) PushAssignments(assignments []conftree.Assignment) (*conftree.Report, error) {
	if !s.isOpen {
		return nil, s.notOpen("push config")
	}
	t := s.tree()
	root, err := t.Root()
	if err != nil {
		return nil, err
	}
	return t.Push(root, assignments)
}

// Item is a single configuration node of an open session.
type Item struct {
	s     *Session
	token handles.Token
	Path  string
	Meta  conftree.Meta
}

// Item looks up a node by '/'-separated path.
func (s *Session) Item(path string) (*Item, error) {
	if !s.isOpen {
		return nil, s.notOpen("find config")
	}
	t := s.tree()
	root, err := t.Root()
	if err != nil {
		return nil, err
	}
	c, err := t.Find(root, path)
	if err != nil {
		return nil, err
	}
	meta, err := t.Info(c)
	if err != nil {
		return nil, err
	}
	return &Item{s: s, token: s.nodes.Put(c), Path: path, Meta: meta}, nil
}

func (it *Item) handle(op string) (driver.Config, error) {
	c, ok := it.s.nodes.Get(it.token)
	if !ok || !it.s.isOpen {
		return c, errors.New(errors.KindStaleHandle, op).Path(it.Path).
			Detail("session %s", it.s.id).Build()
	}
	return c, nil
}

func (it *Item) tagged(err error) error {
	if e, ok := err.(*errors.Error); ok && e.Path == "" {
		e.Path = it.Path
	}
	return err
}

// Float reads a NUMBER item.
func (it *Item) Float() (float64, error) {
	c, err := it.handle("config get float")
	if err != nil {
		return 0, err
	}
	v, err := it.s.tree().GetFloat(c)
	return v, it.tagged(err)
}

// Integer reads an item through the integer getter.
func (it *Item) Integer() (int64, error) {
	c, err := it.handle("config get integer")
	if err != nil {
		return 0, err
	}
	v, err := it.s.tree().GetInteger(c)
	return v, it.tagged(err)
}

// Bool reads a BOOL item.
func (it *Item) Bool() (bool, error) {
	c, err := it.handle("config get bool")
	if err != nil {
		return false, err
	}
	v, err := it.s.tree().GetBool(c)
	return v, it.tagged(err)
}

// Text reads a STRING or ENUM item.
func (it *Item) Text() (string, error) {
	c, err := it.handle("config get string")
	if err != nil {
		return "", err
	}
	v, err := it.s.tree().GetString(c)
	return v, it.tagged(err)
}

// SetFloat writes a NUMBER item. A WARNING answer is returned as the code.
func (it *Item) SetFloat(v float64) (result.Code, error) {
	c, err := it.handle("config set float")
	if err != nil {
		return result.OK, err
	}
	code, err := it.s.tree().SetFloat(c, v)
	return code, it.tagged(err)
}

// SetInteger writes an item through the integer setter.
func (it *Item) SetInteger(v int64) (result.Code, error) {
	c, err := it.handle("config set integer")
	if err != nil {
		return result.OK, err
	}
	code, err := it.s.tree().SetInteger(c, v)
	return code, it.tagged(err)
}

// SetBool writes a BOOL item.
func (it *Item) SetBool(v bool) (result.Code, error) {
	c, err := it.handle("config set bool")
	if err != nil {
		return result.OK, err
	}
	code, err := it.s.tree().SetBool(c, v)
	return code, it.tagged(err)
}

// SetText writes a STRING or ENUM item.
func (it *Item) SetText(v string) (result.Code, error) {
	c, err := it.handle("config set string")
	if err != nil {
		return result.OK, err
	}
	code, err := it.s.tree().SetString(c, v)
	return code, it.tagged(err)
}
