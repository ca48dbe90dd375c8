package sim

import (
	"math"
	"testing"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/result"
)

// openDemo returns a demo simulator with an open device.
func openDemo(t *testing.T) (*Driver, *driver.Device) {
	t.Helper()
	d := NewDemo()
	var h driver.Handle
	if code := d.Init(driver.MemorySmall); code != result.OK {
		t.Fatalf("Init = %v", code)
	}
	if code := d.Open(&h); code != result.OK {
		t.Fatalf("Open = %v", code)
	}
	var dev driver.Device
	mode := driver.ModeString(driver.SpectranV6, driver.ModeIQReceiver)
	if code := d.OpenDevice(&h, &dev, mode, "SIM0001"); code != result.OK {
		t.Fatalf("OpenDevice = %v", code)
	}
	return d, &dev
}

func find(t *testing.T, d *Driver, dev *driver.Device, path string) driver.Config {
	t.Helper()
	var root, c driver.Config
	if code := d.ConfigRoot(dev, &root); code != result.OK {
		t.Fatalf("ConfigRoot = %v", code)
	}
	if code := d.ConfigFind(dev, &root, &c, path); code != result.OK {
		t.Fatalf("ConfigFind(%s) = %v", path, code)
	}
	return c
}

func TestEnumDevice(t *testing.T) {
	d := New(DemoConfig(), nil, DeviceEntry{Serial: "A"}, DeviceEntry{Serial: "B", Ready: true})
	var h driver.Handle
	d.Init(driver.MemorySmall)
	d.Open(&h)

	info := driver.NewDeviceInfo()
	if code := d.EnumDevice(&h, "spectranv6", 1, info); code != result.OK {
		t.Fatalf("EnumDevice(1) = %v", code)
	}
	if info.Serial() != "B" || !info.Ready {
		t.Errorf("got serial %q ready %v", info.Serial(), info.Ready)
	}
	if code := d.EnumDevice(&h, "spectranv6", 2, info); code != result.ErrorNotFound {
		t.Errorf("EnumDevice(2) = %v, want ERROR_NOT_FOUND", code)
	}
	if code := d.EnumDevice(&h, "spectranv6", 0, &driver.DeviceInfo{}); code != result.ErrorInvalidSize {
		t.Errorf("EnumDevice without cbsize = %v, want ERROR_INVALID_SIZE", code)
	}
	if got := d.EnumIndices(); len(got) != 3 {
		t.Errorf("EnumIndices() = %v", got)
	}
}

func TestForce(t *testing.T) {
	d := NewDemo()
	d.Force("Init", result.ErrorBusy)
	if code := d.Init(driver.MemorySmall); code != result.ErrorBusy {
		t.Errorf("first Init = %v, want ERROR_BUSY", code)
	}
	if code := d.Init(driver.MemorySmall); code != result.OK {
		t.Errorf("second Init = %v, want OK", code)
	}
	if n := d.CallCount("Init"); n != 2 {
		t.Errorf("CallCount(Init) = %d", n)
	}
}

func TestSetFloatClamps(t *testing.T) {
	d, dev := openDemo(t)
	c := find(t, d, dev, "main/reflevel")

	if code := d.ConfigSetFloat(dev, &c, 50); code != result.WarningValueAdjusted {
		t.Errorf("ConfigSetFloat(50) = %v, want WARNING_VALUE_ADJUSTED", code)
	}
	var v float64
	d.ConfigGetFloat(dev, &c, &v)
	if v != 10 {
		t.Errorf("read back %v, want 10", v)
	}
	if code := d.ConfigSetFloat(dev, &c, -30); code != result.OK {
		t.Errorf("ConfigSetFloat(-30) = %v", code)
	}
}

func TestEnumAndButton(t *testing.T) {
	d, dev := openDemo(t)

	c := find(t, d, dev, "calibration/rffilter")
	if code := d.ConfigSetString(dev, &c, "Bypass"); code != result.OK {
		t.Errorf("set Bypass = %v", code)
	}
	if code := d.ConfigSetString(dev, &c, "Sideways"); code != result.ErrorValueInvalid {
		t.Errorf("set Sideways = %v, want ERROR_VALUE_INVALID", code)
	}

	b := find(t, d, dev, "calibration/calibrationreload")
	var v int64
	if code := d.ConfigGetInteger(dev, &b, &v); code != result.ErrorInvalidConfig {
		t.Errorf("get button = %v, want ERROR_INVALID_CONFIG", code)
	}
	if code := d.ConfigSetInteger(dev, &b, 1); code != result.OK {
		t.Errorf("press button = %v", code)
	}
	if n := d.Root.Lookup("calibration/calibrationreload").Triggers; n != 1 {
		t.Errorf("Triggers = %d", n)
	}
}

func TestConfigIteration(t *testing.T) {
	d, dev := openDemo(t)
	var root, c driver.Config
	d.ConfigRoot(dev, &root)

	var names []string
	for code := d.ConfigFirst(dev, &root, &c); code == result.OK; code = d.ConfigNext(dev, &root, &c) {
		var name string
		d.ConfigGetName(dev, &c, &name)
		names = append(names, name)
	}
	want := []string{"main", "calibration", "device"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestConsumePoisonsSamples(t *testing.T) {
	d, dev := openDemo(t)
	d.PushPacket(0, driver.Packet{Num: 2, Size: 1}, []float32{1, 2})

	p := driver.NewPacket()
	if code := d.GetPacket(dev, 0, 0, p); code != result.OK {
		t.Fatalf("GetPacket = %v", code)
	}
	view := p.Samples()
	if len(view) != 2 || view[1] != 2 {
		t.Fatalf("Samples() = %v", view)
	}
	if code := d.ConsumePackets(dev, 0, 1); code != result.OK {
		t.Fatalf("ConsumePackets = %v", code)
	}
	if !math.IsNaN(float64(view[0])) {
		t.Errorf("consumed sample still readable: %v", view[0])
	}
	if code := d.GetPacket(dev, 0, 0, p); code != result.Empty {
		t.Errorf("GetPacket on empty queue = %v, want EMPTY", code)
	}
}

func TestDeviceStates(t *testing.T) {
	d, dev := openDemo(t)
	d.StartingPolls = 1

	if code := d.StartDevice(dev); code != result.ErrorNotConnected {
		t.Errorf("StartDevice before connect = %v", code)
	}
	d.ConnectDevice(dev)
	if code := d.GetDeviceState(dev); code != result.Connected {
		t.Errorf("state = %v, want CONNECTED", code)
	}
	d.StartDevice(dev)
	if code := d.GetDeviceState(dev); code != result.Starting {
		t.Errorf("state = %v, want STARTING", code)
	}
	if code := d.GetDeviceState(dev); code != result.Running {
		t.Errorf("state = %v, want RUNNING", code)
	}
}
