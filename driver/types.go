package driver

import (
	"fmt"
	"strings"
	"unsafe"
)

// Handle matches AARTSAAPI_Handle
type Handle struct {
	D uintptr
}

// Device matches AARTSAAPI_Device
type Device struct {
	D uintptr
}

// Config matches AARTSAAPI_Config
type Config struct {
	D uintptr
}

// Text field widths, in wide characters
const (
	SerialNumberLen = 120
	NameLen         = 80
	TitleLen        = 120
	UnitLen         = 10
	OptionsLen      = 1000
)

// DeviceInfo matches AARTSAAPI_DeviceInfo
type DeviceInfo struct {
	Cbsize       int64
	SerialNumber [SerialNumberLen]WChar
	Ready        bool
	Boost        bool
	Superspeed   bool
	Active       bool
}

// NewDeviceInfo returns a DeviceInfo with Cbsize set.
func NewDeviceInfo() *DeviceInfo {
	return &DeviceInfo{Cbsize: int64(unsafe.Sizeof(DeviceInfo{}))}
}

// Serial returns the serial number text.
func (i *DeviceInfo) Serial() string {
	return DecodeText(i.SerialNumber[:])
}

// SetSerial stores the serial number text.
func (i *DeviceInfo) SetSerial(s string) {
	EncodeText(i.SerialNumber[:], s)
}

// ConfigInfo matches AARTSAAPI_ConfigInfo
type ConfigInfo struct {
	Cbsize          int64
	NameText        [NameLen]WChar
	TitleText       [TitleLen]WChar
	Type            ConfigType
	MinValue        float64
	MaxValue        float64
	StepValue       float64
	UnitText        [UnitLen]WChar
	OptionsText     [OptionsLen]WChar
	DisabledOptions int64
}

// NewConfigInfo returns a ConfigInfo with Cbsize set.
func NewConfigInfo() *ConfigInfo {
	return &ConfigInfo{Cbsize: int64(unsafe.Sizeof(ConfigInfo{}))}
}

func (i *ConfigInfo) Name() string { return DecodeText(i.NameText[:]) }
func (i *ConfigInfo) Title() string { return DecodeText(i.TitleText[:]) }
func (i *ConfigInfo) Unit() string { return DecodeText(i.UnitText[:]) }
func (i *ConfigInfo) Options() string { return DecodeText(i.OptionsText[:]) }

func (i *ConfigInfo) SetName(s string) { EncodeText(i.NameText[:], s) }
func (i *ConfigInfo) SetTitle(s string) { EncodeText(i.TitleText[:], s) }
func (i *ConfigInfo) SetUnit(s string) { EncodeText(i.UnitText[:], s) }
func (i *ConfigInfo) SetOptions(s string) { EncodeText(i.OptionsText[:], s) }

// Packet matches AARTSAAPI_Packet.
// FP32 points into the driver's ring buffer and stays valid
// only until the packet is consumed.
type Packet struct {
	Cbsize         int64
	StreamID       uint64
	Flags          uint64
	StartTime      float64
	EndTime        float64
	StartFrequency float64
	StepFrequency  float64
	SpanFrequency  float64
	RBWFrequency   float64
	Num            int64
	Total          int64
	Size           int64
	Stride         int64
	FP32           *float32
	Interleave     int64
}

// NewPacket returns a Packet with Cbsize set.
func NewPacket() *Packet {
	return &Packet{Cbsize: int64(unsafe.Sizeof(Packet{}))}
}

// Samples returns the Num*Size samples the packet points to, without copying.
func (p *Packet) Samples() []float32 {
	n := p.Num * p.Size
	if p.FP32 == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice(p.FP32, n)
}

// ConfigType matches AARTSAAPI_ConfigType
type ConfigType int32

const (
	TypeOther ConfigType = iota
	TypeGroup
	TypeBlob
	TypeNumber
	TypeBool
	TypeEnum
	TypeString
)

func (t ConfigType) String() string {
	switch t {
	case TypeOther:
		return "OTHER"
	case TypeGroup:
		return "GROUP"
	case TypeBlob:
		return "BLOB"
	case TypeNumber:
		return "NUMBER"
	case TypeBool:
		return "BOOL"
	case TypeEnum:
		return "ENUM"
	case TypeString:
		return "STRING"
	default:
		return fmt.Sprintf("ConfigType(%d)", int32(t))
	}
}

// MemoryMode selects the size of the driver's packet buffers.
type MemoryMode uint32

const (
	MemorySmall MemoryMode = iota
	MemoryMedium
	MemoryLarge
	MemoryLudicrous
)

var memoryNames = []string{"small", "medium", "large", "ludicrous"}

func (m MemoryMode) String() string {
	if int(m) < len(memoryNames) {
		return memoryNames[m]
	}
	return fmt.Sprintf("MemoryMode(%d)", uint32(m))
}

// ParseMemoryMode converts a case-insensitive name to a MemoryMode.
func ParseMemoryMode(s string) (MemoryMode, error) {
	for i, name := range memoryNames {
		if strings.EqualFold(s, name) {
			return MemoryMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown memory mode %q", s)
}

// DeviceType identifies a family of receivers.
type DeviceType int

const (
	SpectranV6 DeviceType = iota
)

var deviceTypeNames = []string{"spectranv6"}

func (t DeviceType) String() string {
	if int(t) < len(deviceTypeNames) && t >= 0 {
		return deviceTypeNames[t]
	}
	return fmt.Sprintf("DeviceType(%d)", int(t))
}

// ParseDeviceType converts a case-insensitive name to a DeviceType.
func ParseDeviceType(s string) (DeviceType, error) {
	for i, name := range deviceTypeNames {
		if strings.EqualFold(s, name) {
			return DeviceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown device type %q", s)
}

// DeviceMode selects the operating mode a device is opened in.
type DeviceMode int

const (
	ModeRaw DeviceMode = iota
	ModeRTSA
	ModeSweepSA
	ModeIQReceiver
	ModeIQTransmitter
	ModeIQTransceiver
)

var deviceModeNames = []string{"raw", "rtsa", "sweepsa", "iqreceiver", "iqtransmitter", "iqtransceiver"}

func (m DeviceMode) String() string {
	if int(m) < len(deviceModeNames) && m >= 0 {
		return deviceModeNames[m]
	}
	return fmt.Sprintf("DeviceMode(%d)", int(m))
}

// ParseDeviceMode converts a case-insensitive name to a DeviceMode.
func ParseDeviceMode(s string) (DeviceMode, error) {
	for i, name := range deviceModeNames {
		if strings.EqualFold(s, name) {
			return DeviceMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown device mode %q", s)
}

// ModeString returns the "{type}/{mode}" string OpenDevice expects.
func ModeString(t DeviceType, m DeviceMode) string {
	return strings.ToLower(t.String() + "/" + m.String())
}
