// Package driver describes the binary interface of the RTSA API library:
// the fixed-layout records exchanged with it and the table of procedures
// it exports. Every procedure returns a result.Code; outputs are written
// through pointer arguments, as in the C API.
package driver

import "github.com/sergev/spectran/result"

// Driver is the procedure table of the RTSA API.
//
// String arguments are plain Go strings; implementations that call into
// the native library marshal them to NUL-terminated wide strings.
// Records passed by pointer must have their Cbsize field set
// (use NewDeviceInfo, NewConfigInfo and NewPacket).
type Driver interface {
	Init(memory MemoryMode) result.Code
	Shutdown() result.Code
	Version() uint32

	Open(h *Handle) result.Code
	Close(h *Handle) result.Code
	RescanDevices(h *Handle, timeoutMillis int32) result.Code
	ResetDevices(h *Handle) result.Code
	EnumDevice(h *Handle, deviceType string, index int32, info *DeviceInfo) result.Code

	OpenDevice(h *Handle, d *Device, mode string, serial string) result.Code
	CloseDevice(h *Handle, d *Device) result.Code
	ConnectDevice(d *Device) result.Code
	DisconnectDevice(d *Device) result.Code
	StartDevice(d *Device) result.Code
	StopDevice(d *Device) result.Code
	GetDeviceState(d *Device) result.Code

	AvailPackets(d *Device, channel int32, num *int32) result.Code
	GetPacket(d *Device, channel int32, index int32, p *Packet) result.Code
	ConsumePackets(d *Device, channel int32, num int32) result.Code
	GetMasterStreamTime(d *Device, stime *float64) result.Code
	SendPacket(d *Device, channel int32, p *Packet) result.Code

	ConfigRoot(d *Device, c *Config) result.Code
	ConfigHealth(d *Device, c *Config) result.Code
	ConfigFirst(d *Device, group *Config, c *Config) result.Code
	ConfigNext(d *Device, group *Config, c *Config) result.Code
	ConfigFind(d *Device, group *Config, c *Config, name string) result.Code
	ConfigGetName(d *Device, c *Config, name *string) result.Code
	ConfigGetInfo(d *Device, c *Config, info *ConfigInfo) result.Code

	ConfigSetFloat(d *Device, c *Config, value float64) result.Code
	ConfigGetFloat(d *Device, c *Config, value *float64) result.Code
	ConfigSetString(d *Device, c *Config, value string) result.Code
	ConfigGetString(d *Device, c *Config, value *string) result.Code
	ConfigSetInteger(d *Device, c *Config, value int64) result.Code
	ConfigGetInteger(d *Device, c *Config, value *int64) result.Code
}
