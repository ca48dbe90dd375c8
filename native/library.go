// Package native binds the vendor RTSA API shared library at run time.
// A library is loaded once per path and shared by reference count.
package native

import (
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/logging"
	"github.com/sergev/spectran/result"
	"go.uber.org/zap"
)

// Library is a loaded RTSA API library. It implements driver.Driver.
type Library struct {
	path   string
	handle uintptr
	refs   int

	initialize     func(memory uint32) uint32
	shutdown       func() uint32
	version        func() uint32
	open           func(h *driver.Handle) uint32
	close          func(h *driver.Handle) uint32
	rescanDevices  func(h *driver.Handle, timeout int32) uint32
	resetDevices   func(h *driver.Handle) uint32
	enumDevice     func(h *driver.Handle, typ *driver.WChar, index int32, info *driver.DeviceInfo) uint32
	openDevice     func(h *driver.Handle, d *driver.Device, mode *driver.WChar, serial *driver.WChar) uint32
	closeDevice    func(h *driver.Handle, d *driver.Device) uint32
	connectDevice  func(d *driver.Device) uint32
	disconnect     func(d *driver.Device) uint32
	startDevice    func(d *driver.Device) uint32
	stopDevice     func(d *driver.Device) uint32
	deviceState    func(d *driver.Device) uint32
	availPackets   func(d *driver.Device, channel int32, num *int32) uint32
	getPacket      func(d *driver.Device, channel int32, index int32, p *driver.Packet) uint32
	consumePackets func(d *driver.Device, channel int32, num int32) uint32
	streamTime     func(d *driver.Device, stime *float64) uint32
	sendPacket     func(d *driver.Device, channel int32, p *driver.Packet) uint32
	configRoot     func(d *driver.Device, c *driver.Config) uint32
	configHealth   func(d *driver.Device, c *driver.Config) uint32
	configFirst    func(d *driver.Device, group *driver.Config, c *driver.Config) uint32
	configNext     func(d *driver.Device, group *driver.Config, c *driver.Config) uint32
	configFind     func(d *driver.Device, group *driver.Config, c *driver.Config, name *driver.WChar) uint32
	configGetName  func(d *driver.Device, c *driver.Config, name *driver.WChar) uint32
	configGetInfo  func(d *driver.Device, c *driver.Config, info *driver.ConfigInfo) uint32
	setFloat       func(d *driver.Device, c *driver.Config, value float64) uint32
	getFloat       func(d *driver.Device, c *driver.Config, value *float64) uint32
	setString      func(d *driver.Device, c *driver.Config, value *driver.WChar) uint32
	getString      func(d *driver.Device, c *driver.Config, value *driver.WChar, size *int64) uint32
	setInteger     func(d *driver.Device, c *driver.Config, value int64) uint32
	getInteger     func(d *driver.Device, c *driver.Config, value *int64) uint32
}

// symbols pairs every exported procedure with the field it binds to.
func (l *Library) symbols() []struct {
	name string
	fptr any
} {
	return []struct {
		name string
		fptr any
	}{
		{"AARTSAAPI_Init", &l.initialize},
		{"AARTSAAPI_Shutdown", &l.shutdown},
		{"AARTSAAPI_Version", &l.version},
		{"AARTSAAPI_Open", &l.open},
		{"AARTSAAPI_Close", &l.close},
		{"AARTSAAPI_RescanDevices", &l.rescanDevices},
		{"AARTSAAPI_ResetDevices", &l.resetDevices},
		{"AARTSAAPI_EnumDevice", &l.enumDevice},
		{"AARTSAAPI_OpenDevice", &l.openDevice},
		{"AARTSAAPI_CloseDevice", &l.closeDevice},
		{"AARTSAAPI_ConnectDevice", &l.connectDevice},
		{"AARTSAAPI_DisconnectDevice", &l.disconnect},
		{"AARTSAAPI_StartDevice", &l.startDevice},
		{"AARTSAAPI_StopDevice", &l.stopDevice},
		{"AARTSAAPI_GetDeviceState", &l.deviceState},
		{"AARTSAAPI_AvailPackets", &l.availPackets},
		{"AARTSAAPI_GetPacket", &l.getPacket},
		{"AARTSAAPI_ConsumePackets", &l.consumePackets},
		{"AARTSAAPI_GetMasterStreamTime", &l.streamTime},
		{"AARTSAAPI_SendPacket", &l.sendPacket},
		{"AARTSAAPI_ConfigRoot", &l.configRoot},
		{"AARTSAAPI_ConfigHealth", &l.configHealth},
		{"AARTSAAPI_ConfigFirst", &l.configFirst},
		{"AARTSAAPI_ConfigNext", &l.configNext},
		{"AARTSAAPI_ConfigFind", &l.configFind},
		{"AARTSAAPI_ConfigGetName", &l.configGetName},
		{"AARTSAAPI_ConfigGetInfo", &l.configGetInfo},
		{"AARTSAAPI_ConfigSetFloat", &l.setFloat},
		{"AARTSAAPI_ConfigGetFloat", &l.getFloat},
		{"AARTSAAPI_ConfigSetString", &l.setString},
		{"AARTSAAPI_ConfigGetString", &l.getString},
		{"AARTSAAPI_ConfigSetInteger", &l.setInteger},
		{"AARTSAAPI_ConfigGetInteger", &l.getInteger},
	}
}

var (
	cacheMu sync.Mutex
	cache   = make(map[string]*Library)

	// Platform loader, replaceable in tests.
	openLibrary  = dlopen
	lookupSymbol = dlsym
	closeLibrary = dlclose
)

// Acquire returns the library at path, loading it on first use.
// Every successful Acquire must be paired with a Release.
func Acquire(path string) (*Library, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if l, ok := cache[path]; ok {
		l.refs++
		return l, nil
	}

	handle, err := openLibrary(path)
	if err != nil {
		return nil, errors.New(errors.KindLibraryLoad, "load library").Path(path).Cause(err).Build()
	}
	l := &Library{path: path, handle: handle, refs: 1}
	for _, sym := range l.symbols() {
		addr, err := lookupSymbol(handle, sym.name)
		if err != nil || addr == 0 {
			closeLibrary(handle)
			return nil, errors.New(errors.KindLibraryLoad, "bind procedure").
				Path(path).Detail("symbol %s", sym.name).Cause(err).Build()
		}
		purego.RegisterFunc(sym.fptr, addr)
	}
	cache[path] = l
	logging.For("native").Info("library loaded", zap.String("path", path))
	return l, nil
}

// Release drops one reference, unloading the library with the last.
func (l *Library) Release() {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	l.refs--
	if l.refs > 0 {
		return
	}
	delete(cache, l.path)
	if err := closeLibrary(l.handle); err != nil {
		logging.For("native").Warn("unload library failed", zap.String("path", l.path), zap.Error(err))
		return
	}
	logging.For("native").Info("library unloaded", zap.String("path", l.path))
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

func (l *Library) Init(memory driver.MemoryMode) result.Code {
	return result.Code(l.initialize(uint32(memory)))
}

func (l *Library) Shutdown() result.Code { return result.Code(l.shutdown()) }
func (l *Library) Version() uint32       { return l.version() }

func (l *Library) Open(h *driver.Handle) result.Code  { return result.Code(l.open(h)) }
func (l *Library) Close(h *driver.Handle) result.Code { return result.Code(l.close(h)) }

func (l *Library) RescanDevices(h *driver.Handle, timeoutMillis int32) result.Code {
	return result.Code(l.rescanDevices(h, timeoutMillis))
}

func (l *Library) ResetDevices(h *driver.Handle) result.Code {
	return result.Code(l.resetDevices(h))
}

func (l *Library) EnumDevice(h *driver.Handle, deviceType string, index int32, info *driver.DeviceInfo) result.Code {
	typ := driver.WideString(deviceType)
	code := l.enumDevice(h, &typ[0], index, info)
	runtime.KeepAlive(typ)
	return result.Code(code)
}

func (l *Library) OpenDevice(h *driver.Handle, d *driver.Device, mode string, serial string) result.Code {
	m := driver.WideString(mode)
	sn := driver.WideString(serial)
	code := l.openDevice(h, d, &m[0], &sn[0])
	runtime.KeepAlive(m)
	runtime.KeepAlive(sn)
	return result.Code(code)
}

func (l *Library) CloseDevice(h *driver.Handle, d *driver.Device) result.Code {
	return result.Code(l.closeDevice(h, d))
}

func (l *Library) ConnectDevice(d *driver.Device) result.Code    { return result.Code(l.connectDevice(d)) }
func (l *Library) DisconnectDevice(d *driver.Device) result.Code { return result.Code(l.disconnect(d)) }
func (l *Library) StartDevice(d *driver.Device) result.Code      { return result.Code(l.startDevice(d)) }
func (l *Library) StopDevice(d *driver.Device) result.Code       { return result.Code(l.stopDevice(d)) }
func (l *Library) GetDeviceState(d *driver.Device) result.Code   { return result.Code(l.deviceState(d)) }

func (l *Library) AvailPackets(d *driver.Device, channel int32, num *int32) result.Code {
	return result.Code(l.availPackets(d, channel, num))
}

func (l *Library) GetPacket(d *driver.Device, channel int32, index int32, p *driver.Packet) result.Code {
	return result.Code(l.getPacket(d, channel, index, p))
}

func (l *Library) ConsumePackets(d *driver.Device, channel int32, num int32) result.Code {
	return result.Code(l.consumePackets(d, channel, num))
}

func (l *Library) GetMasterStreamTime(d *driver.Device, stime *float64) result.Code {
	return result.Code(l.streamTime(d, stime))
}

// SendPacket passes p as is; samples it points to must be pinned by the caller.
func (l *Library) SendPacket(d *driver.Device, channel int32, p *driver.Packet) result.Code {
	return result.Code(l.sendPacket(d, channel, p))
}

func (l *Library) ConfigRoot(d *driver.Device, c *driver.Config) result.Code {
	return result.Code(l.configRoot(d, c))
}

func (l *Library) ConfigHealth(d *driver.Device, c *driver.Config) result.Code {
	return result.Code(l.configHealth(d, c))
}

func (l *Library) ConfigFirst(d *driver.Device, group *driver.Config, c *driver.Config) result.Code {
	return result.Code(l.configFirst(d, group, c))
}

func (l *Library) ConfigNext(d *driver.Device, group *driver.Config, c *driver.Config) result.Code {
	return result.Code(l.configNext(d, group, c))
}

func (l *Library) ConfigFind(d *driver.Device, group *driver.Config, c *driver.Config, name string) result.Code {
	n := driver.WideString(name)
	code := l.configFind(d, group, c, &n[0])
	runtime.KeepAlive(n)
	return result.Code(code)
}

func (l *Library) ConfigGetName(d *driver.Device, c *driver.Config, name *string) result.Code {
	var buf [driver.NameLen]driver.WChar
	code := result.Code(l.configGetName(d, c, &buf[0]))
	if code == result.OK {
		*name = driver.DecodeText(buf[:])
	}
	return code
}

func (l *Library) ConfigGetInfo(d *driver.Device, c *driver.Config, info *driver.ConfigInfo) result.Code {
	return result.Code(l.configGetInfo(d, c, info))
}

func (l *Library) ConfigSetFloat(d *driver.Device, c *driver.Config, value float64) result.Code {
	return result.Code(l.setFloat(d, c, value))
}

func (l *Library) ConfigGetFloat(d *driver.Device, c *driver.Config, value *float64) result.Code {
	return result.Code(l.getFloat(d, c, value))
}

func (l *Library) ConfigSetString(d *driver.Device, c *driver.Config, value string) result.Code {
	v := driver.WideString(value)
	code := l.setString(d, c, &v[0])
	runtime.KeepAlive(v)
	return result.Code(code)
}

// stringBufferLen is the initial size, in characters, of the buffer
// ConfigGetString reads into.
const stringBufferLen = 1000

// ConfigGetString reads a string value. When the driver answers
// ERROR_BUFFER_SIZE it reports the length it needs in size; the call
// is then repeated once with a buffer of that length.
func (l *Library) ConfigGetString(d *driver.Device, c *driver.Config, value *string) result.Code {
	buf := make([]driver.WChar, stringBufferLen)
	size := int64(len(buf))
	code := result.Code(l.getString(d, c, &buf[0], &size))
	if code == result.ErrorBufferSize && size > int64(len(buf)) {
		logging.For("native").Debug("string buffer too small", zap.Int64("size", size))
		buf = make([]driver.WChar, size+1)
		size = int64(len(buf))
		code = result.Code(l.getString(d, c, &buf[0], &size))
	}
	if code == result.OK {
		*value = driver.DecodeText(buf)
	}
	return code
}

func (l *Library) ConfigSetInteger(d *driver.Device, c *driver.Config, value int64) result.Code {
	return result.Code(l.setInteger(d, c, value))
}

func (l *Library) ConfigGetInteger(d *driver.Device, c *driver.Config, value *int64) result.Code {
	return result.Code(l.getInteger(d, c, value))
}

var _ driver.Driver = (*Library)(nil)
