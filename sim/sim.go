// Package sim is an in-process implementation of the RTSA API procedure
// table. It keeps a configuration tree, a device list and per-channel
// packet queues in memory, records every call, and lets a caller force
// the result of the next calls to any procedure.
package sim

import (
	"math"
	"strings"
	"sync"
	"unsafe"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/result"
)

// DeviceEntry is one receiver visible to EnumDevice.
type DeviceEntry struct {
	Serial     string
	Ready      bool
	Boost      bool
	Superspeed bool
	Active     bool
}

// Generator produces the next packet of a running device's channel.
type Generator func(channel int32, seq uint64) (driver.Packet, []float32)

type queued struct {
	packet  driver.Packet
	samples []float32
}

type device struct {
	serial    string
	mode      string
	connected bool
	started   bool
	starting  int
	seq       uint64
	queues    map[int32][]queued
}

// Driver is the simulated procedure table.
type Driver struct {
	mu sync.Mutex

	// Devices lists the receivers EnumDevice reports, in index order.
	Devices []DeviceEntry

	// Root and Health are the trees behind ConfigRoot and ConfigHealth.
	Root   *Node
	Health *Node

	// StartingPolls is the number of GetDeviceState calls answering
	// STARTING after StartDevice before the device reports RUNNING.
	StartingPolls int

	// Generate, when set, fills an empty channel of a running device.
	Generate Generator

	// APIVersion is returned by Version.
	APIVersion uint32

	initialized bool
	opened      bool
	calls       []string
	enumIndices []int32
	forced      map[string][]result.Code
	nodes       []*Node
	nodeIndex   map[*Node]uintptr
	devices     map[uintptr]*device
	nextDevice  uintptr
}

// New returns a simulator with the given configuration and health trees.
func New(root, health *Node, devices ...DeviceEntry) *Driver {
	return &Driver{
		Devices:    devices,
		Root:       root,
		Health:     health,
		APIVersion: 1<<16 | 1,
		forced:     make(map[string][]result.Code),
		devices:    make(map[uintptr]*device),
	}
}

// NewDemo returns a simulator with one ready receiver, receiver-like
// trees, and a generator producing IQ packets on channel 0.
func NewDemo() *Driver {
	d := New(DemoConfig(), DemoHealth(), DeviceEntry{
		Serial: "SIM0001", Ready: true, Superspeed: true,
	})
	d.StartingPolls = 3
	d.Generate = IQGenerator(92e6, 1024)
	return d
}

// Force makes the next calls to proc return codes, in order,
// before the simulator's own behavior is consulted.
func (d *Driver) Force(proc string, codes ...result.Code) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forced[proc] = append(d.forced[proc], codes...)
}

// Calls returns the names of the procedures called so far, in order.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// CallCount returns how many times proc was called.
func (d *Driver) CallCount(proc string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == proc {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
	d.enumIndices = nil
}

// EnumIndices returns the indices passed to EnumDevice so far.
func (d *Driver) EnumIndices() []int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int32(nil), d.enumIndices...)
}

// PushPacket appends a packet to a channel of every open device.
func (d *Driver) PushPacket(channel int32, p driver.Packet, samples []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dev := range d.devices {
		dev.queues[channel] = append(dev.queues[channel], queued{packet: p, samples: samples})
	}
}

// call logs proc and returns a forced code, if any.
// The caller must hold d.mu.
func (d *Driver) call(proc string) (result.Code, bool) {
	d.calls = append(d.calls, proc)
	codes := d.forced[proc]
	if len(codes) == 0 {
		return result.OK, false
	}
	d.forced[proc] = codes[1:]
	return codes[0], true
}

func (d *Driver) Init(memory driver.MemoryMode) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("Init"); ok {
		return code
	}
	if memory > driver.MemoryLudicrous {
		return result.ErrorInvalidParameter
	}
	d.initialized = true
	return result.OK
}

func (d *Driver) Shutdown() result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("Shutdown"); ok {
		return code
	}
	d.initialized = false
	return result.OK
}

func (d *Driver) Version() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("Version")
	return d.APIVersion
}

func (d *Driver) Open(h *driver.Handle) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("Open"); ok {
		return code
	}
	if !d.initialized {
		return result.ErrorNotInitialized
	}
	d.opened = true
	h.D = 1
	return result.OK
}

func (d *Driver) Close(h *driver.Handle) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("Close"); ok {
		return code
	}
	if h.D == 0 {
		return result.ErrorNotOpen
	}
	d.opened = false
	h.D = 0
	return result.OK
}

func (d *Driver) RescanDevices(h *driver.Handle, timeoutMillis int32) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("RescanDevices"); ok {
		return code
	}
	if h.D == 0 {
		return result.ErrorNotOpen
	}
	return result.OK
}

func (d *Driver) ResetDevices(h *driver.Handle) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ResetDevices"); ok {
		return code
	}
	if h.D == 0 {
		return result.ErrorNotOpen
	}
	return result.OK
}

func (d *Driver) EnumDevice(h *driver.Handle, deviceType string, index int32, info *driver.DeviceInfo) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumIndices = append(d.enumIndices, index)
	if code, ok := d.call("EnumDevice"); ok {
		return code
	}
	switch {
	case h.D == 0:
		return result.ErrorNotOpen
	case info.Cbsize != int64(unsafe.Sizeof(*info)):
		return result.ErrorInvalidSize
	case deviceType != driver.SpectranV6.String():
		return result.ErrorInvalidParameter
	case index < 0 || int(index) >= len(d.Devices):
		return result.ErrorNotFound
	}
	e := d.Devices[index]
	info.SetSerial(e.Serial)
	info.Ready = e.Ready
	info.Boost = e.Boost
	info.Superspeed = e.Superspeed
	info.Active = e.Active
	return result.OK
}

func (d *Driver) OpenDevice(h *driver.Handle, dev *driver.Device, mode string, serial string) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("OpenDevice"); ok {
		return code
	}
	if h.D == 0 {
		return result.ErrorNotOpen
	}
	typ, m, found := strings.Cut(mode, "/")
	if !found || typ != driver.SpectranV6.String() {
		return result.ErrorInvalidParameter
	}
	if _, err := driver.ParseDeviceMode(m); err != nil || m != strings.ToLower(m) {
		return result.ErrorInvalidParameter
	}
	known := false
	for _, e := range d.Devices {
		if e.Serial == serial {
			known = true
			break
		}
	}
	if !known {
		return result.ErrorNotFound
	}
	d.nextDevice++
	d.devices[d.nextDevice] = &device{serial: serial, mode: mode, queues: make(map[int32][]queued)}
	dev.D = d.nextDevice
	return result.OK
}

func (d *Driver) CloseDevice(h *driver.Handle, dev *driver.Device) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("CloseDevice"); ok {
		return code
	}
	if _, ok := d.devices[dev.D]; !ok {
		return result.ErrorNotOpen
	}
	delete(d.devices, dev.D)
	dev.D = 0
	return result.OK
}

// lookup returns the open device for dev. The caller must hold d.mu.
func (d *Driver) lookup(dev *driver.Device) (*device, result.Code) {
	s, ok := d.devices[dev.D]
	if !ok {
		return nil, result.ErrorNotOpen
	}
	return s, result.OK
}

func (d *Driver) ConnectDevice(dev *driver.Device) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConnectDevice"); ok {
		return code
	}
	s, code := d.lookup(dev)
	if code != result.OK {
		return code
	}
	s.connected = true
	return result.OK
}

func (d *Driver) DisconnectDevice(dev *driver.Device) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("DisconnectDevice"); ok {
		return code
	}
	s, code := d.lookup(dev)
	if code != result.OK {
		return code
	}
	s.connected = false
	s.started = false
	return result.OK
}

func (d *Driver) StartDevice(dev *driver.Device) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("StartDevice"); ok {
		return code
	}
	s, code := d.lookup(dev)
	if code != result.OK {
		return code
	}
	if !s.connected {
		return result.ErrorNotConnected
	}
	s.started = true
	s.starting = d.StartingPolls
	return result.OK
}

func (d *Driver) StopDevice(dev *driver.Device) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("StopDevice"); ok {
		return code
	}
	s, code := d.lookup(dev)
	if code != result.OK {
		return code
	}
	s.started = false
	return result.OK
}

func (d *Driver) GetDeviceState(dev *driver.Device) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("GetDeviceState"); ok {
		return code
	}
	s, code := d.lookup(dev)
	switch {
	case code != result.OK:
		return code
	case s.started && s.starting > 0:
		s.starting--
		return result.Starting
	case s.started:
		return result.Running
	case s.connected:
		return result.Connected
	default:
		return result.Idle
	}
}

func (d *Driver) AvailPackets(dev *driver.Device, channel int32, num *int32) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("AvailPackets"); ok {
		return code
	}
	s, code := d.lookup(dev)
	if code != result.OK {
		return code
	}
	if channel < 0 {
		return result.ErrorInvalidChannel
	}
	*num = int32(len(s.queues[channel]))
	return result.OK
}

func (d *Driver) GetPacket(dev *driver.Device, channel int32, index int32, p *driver.Packet) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("GetPacket"); ok {
		return code
	}
	s, code := d.lookup(dev)
	switch {
	case code != result.OK:
		return code
	case channel < 0:
		return result.ErrorInvalidChannel
	case p.Cbsize != int64(unsafe.Sizeof(*p)):
		return result.ErrorInvalidSize
	}
	q := s.queues[channel]
	if len(q) == 0 && s.started && d.Generate != nil {
		pk, samples := d.Generate(channel, s.seq)
		s.seq++
		q = append(q, queued{packet: pk, samples: samples})
		s.queues[channel] = q
	}
	if index < 0 || int(index) >= len(q) {
		return result.Empty
	}
	e := q[index]
	cbsize := p.Cbsize
	*p = e.packet
	p.Cbsize = cbsize
	p.FP32 = nil
	if len(e.samples) > 0 {
		p.FP32 = &e.samples[0]
	}
	return result.OK
}

func (d *Driver) ConsumePackets(dev *driver.Device, channel int32, num int32) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("ConsumePackets"); ok {
		return code
	}
	s, code := d.lookup(dev)
	if code != result.OK {
		return code
	}
	q := s.queues[channel]
	if num < 0 || int(num) > len(q) {
		return result.ErrorInvalidSize
	}
	// The ring buffer slot is reused: poison consumed samples so that a
	// reader keeping the driver's pointer sees garbage, as it would on hardware.
	for _, e := range q[:num] {
		for i := range e.samples {
			e.samples[i] = float32(math.NaN())
		}
	}
	s.queues[channel] = q[num:]
	return result.OK
}

func (d *Driver) GetMasterStreamTime(dev *driver.Device, stime *float64) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("GetMasterStreamTime"); ok {
		return code
	}
	s, code := d.lookup(dev)
	if code != result.OK {
		return code
	}
	if !s.started {
		return result.ErrorNotConnected
	}
	*stime = float64(s.seq)
	return result.OK
}

func (d *Driver) SendPacket(dev *driver.Device, channel int32, p *driver.Packet) result.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code, ok := d.call("SendPacket"); ok {
		return code
	}
	s, code := d.lookup(dev)
	switch {
	case code != result.OK:
		return code
	case !s.started:
		return result.ErrorNotConnected
	case p.Cbsize != int64(unsafe.Sizeof(*p)):
		return result.ErrorInvalidSize
	}
	// Transmitted packets loop back on the same channel.
	samples := append([]float32(nil), p.Samples()...)
	pk := *p
	pk.FP32 = nil
	s.queues[channel] = append(s.queues[channel], queued{packet: pk, samples: samples})
	return result.OK
}
