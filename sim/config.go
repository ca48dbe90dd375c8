package sim

import (
	"math"
	"strconv"
	"unsafe"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/result"
)

// ref returns the handle of n, registering it on first use.
// The caller must hold d.mu.
func (d *Driver) ref(n *Node) uintptr {
	if d.nodeIndex == nil {
		d.nodeIndex = make(map[*Node]uintptr)
	}
	if h, ok := d.nodeIndex[n]; ok {
		return h
	}
	d.nodes = append(d.nodes, n)
	h := uintptr(len(d.nodes))
	d.nodeIndex[n] = h
	return h
}

// node resolves a configuration handle. The caller must hold d.mu.
func (d *Driver) node(dev *driver.Device, c *driver.Config) (*Node, result.Code) {
	if _, ok := d.devices[dev.D]; !ok {
		return nil, result.ErrorNotOpen
	}
	if c.D == 0 || int(c.D) > len(d.nodes) {
		return nil, result.ErrorInvalidConfig
	}
	return d.nodes[c.D-1], result.OK
}

func (d *Driver) ConfigRoot(dev *driver.Device, c *driver.Config) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigRoot"); ok {
		return code
	}
	if _, ok := d.devices[dev.D]; !ok {
		return result.ErrorNotOpen
	}
	c.D = d.ref(d.Root)
	return result.OK
}

func (d *Driver) ConfigHealth(dev *driver.Device, c *driver.Config) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigHealth"); ok {
		return code
	}
	if _, ok := d.devices[dev.D]; !ok {
		return result.ErrorNotOpen
	}
	if d.Health == nil {
		return result.ErrorNotFound
	}
	c.D = d.ref(d.Health)
	return result.OK
}

func (d *Driver) ConfigFirst(dev *driver.Device, group *driver.Config, c *driver.Config) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigFirst"); ok {
		return code
	}
	g, code := d.node(dev, group)
	switch {
	case code != result.OK:
		return code
	case g.Type != driver.TypeGroup:
		return result.ErrorInvalidConfig
	case len(g.Children) == 0:
		return result.ErrorNotFound
	}
	c.D = d.ref(g.Children[0])
	return result.OK
}

func (d *Driver) ConfigNext(dev *driver.Device, group *driver.Config, c *driver.Config) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigNext"); ok {
		return code
	}
	g, code := d.node(dev, group)
	if code != result.OK {
		return code
	}
	cur, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	for i, child := range g.Children {
		if child != cur {
			continue
		}
		if i+1 == len(g.Children) {
			return result.ErrorNotFound
		}
		c.D = d.ref(g.Children[i+1])
		return result.OK
	}
	return result.ErrorInvalidConfig
}

func (d *Driver) ConfigFind(dev *driver.Device, group *driver.Config, c *driver.Config, name string) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigFind"); ok {
		return code
	}
	g, code := d.node(dev, group)
	if code != result.OK {
		return code
	}
	n := g.Lookup(name)
	if n == nil {
		return result.ErrorNotFound
	}
	c.D = d.ref(n)
	return result.OK
}

func (d *Driver) ConfigGetName(dev *driver.Device, c *driver.Config, name *string) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigGetName"); ok {
		return code
	}
	n, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	*name = n.Name
	return result.OK
}

func (d *Driver) ConfigGetInfo(dev *driver.Device, c *driver.Config, info *driver.ConfigInfo) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigGetInfo"); ok {
		return code
	}
	n, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	if info.Cbsize != int64(unsafe.Sizeof(*info)) {
		return result.ErrorInvalidSize
	}
	info.SetName(n.Name)
	info.SetTitle(n.Title)
	info.SetUnit(n.Unit)
	info.SetOptions(n.Options)
	info.Type = n.Type
	info.MinValue = n.Min
	info.MaxValue = n.Max
	info.StepValue = n.Step
	info.DisabledOptions = n.DisabledOptions
	return result.OK
}

func (d *Driver) ConfigSetFloat(dev *driver.Device, c *driver.Config, value float64) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigSetFloat"); ok {
		return code
	}
	n, code := d.node(dev, c)
	switch {
	case code != result.OK:
		return code
	case n.Type != driver.TypeNumber:
		return result.ErrorInvalidConfig
	case math.IsNaN(value):
		return result.ErrorValueMalformed
	}
	clamped := math.Min(math.Max(value, n.Min), n.Max)
	n.Float = clamped
	if clamped != value {
		return result.WarningValueAdjusted
	}
	return result.OK
}

func (d *Driver) ConfigGetFloat(dev *driver.Device, c *driver.Config, value *float64) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigGetFloat"); ok {
		return code
	}
	n, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	if n.Type != driver.TypeNumber {
		return result.ErrorInvalidConfig
	}
	*value = n.Float
	return result.OK
}

func (d *Driver) ConfigSetString(dev *driver.Device, c *driver.Config, value string) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigSetString"); ok {
		return code
	}
	n, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	switch n.Type {
	case driver.TypeString:
		n.Text = value
	case driver.TypeEnum:
		if !n.hasOption(value) {
			return result.ErrorValueInvalid
		}
		n.Text = value
	case driver.TypeNumber:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return result.ErrorValueMalformed
		}
		n.Float = math.Min(math.Max(f, n.Min), n.Max)
	default:
		return result.ErrorInvalidConfig
	}
	return result.OK
}

func (d *Driver) ConfigGetString(dev *driver.Device, c *driver.Config, value *string) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigGetString"); ok {
		return code
	}
	n, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	switch n.Type {
	case driver.TypeString, driver.TypeEnum:
		*value = n.Text
	case driver.TypeNumber:
		*value = strconv.FormatFloat(n.Float, 'g', -1, 64)
	default:
		return result.ErrorInvalidConfig
	}
	return result.OK
}

func (d *Driver) ConfigSetInteger(dev *driver.Device, c *driver.Config, value int64) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigSetInteger"); ok {
		return code
	}
	n, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	switch n.Type {
	case driver.TypeBool:
		if n.Button {
			if value == 0 {
				return result.ErrorValueInvalid
			}
			n.Triggers++
			return result.OK
		}
		n.Integer = 0
		if value != 0 {
			n.Integer = 1
		}
	case driver.TypeNumber:
		n.Float = math.Min(math.Max(float64(value), n.Min), n.Max)
	default:
		return result.ErrorInvalidConfig
	}
	return result.OK
}

func (d *Driver) ConfigGetInteger(dev *driver.Device, c *driver.Config, value *int64) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConfigGetInteger"); ok {
		return code
	}
	n, code := d.node(dev, c)
	if code != result.OK {
		return code
	}
	switch {
	case n.Type == driver.TypeBool && n.Button:
		return result.ErrorInvalidConfig
	case n.Type == driver.TypeBool:
		*value = n.Integer
	case n.Type == driver.TypeNumber:
		*value = int64(n.Float)
	default:
		return result.ErrorInvalidConfig
	}
	return result.OK
}
