// Package probe looks for receivers on the USB bus without going
// through the RTSA API, to tell a missing device from a driver problem.
package probe

import (
	"fmt"
	"strconv"

	"github.com/google/gousb"
	"go.bug.st/serial/enumerator"
)

// USBDevice describes a device found on the USB bus.
type USBDevice struct {
	Bus     int
	Address int
	Vendor  uint16
	Product uint16
	Speed   string
	Class   string
}

func (d USBDevice) String() string {
	return fmt.Sprintf("bus %03d device %03d: ID %04x:%04x %s, %s",
		d.Bus, d.Address, d.Vendor, d.Product, d.Speed, d.Class)
}

// SerialPort describes a USB serial port.
type SerialPort struct {
	Name    string
	VID     uint16
	PID     uint16
	Serial  string
	Product string
}

// USB lists devices on the USB bus with the given vendor id,
// or all devices when vendor is 0. No device is opened.
func USB(vendor uint16) ([]USBDevice, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var found []USBDevice
	devs, err := ctx.OpenDevices(collect(vendor, &found))
	for _, d := range devs {
		d.Close()
	}
	if err != nil {
		return found, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	return found, nil
}

// collect returns an OpenDevices filter that records matching
// descriptors and never asks for a device to be opened.
func collect(vendor uint16, found *[]USBDevice) func(*gousb.DeviceDesc) bool {
	return func(desc *gousb.DeviceDesc) bool {
		if vendor != 0 && uint16(desc.Vendor) != vendor {
			return false
		}
		*found = append(*found, USBDevice{
			Bus:     desc.Bus,
			Address: desc.Address,
			Vendor:  uint16(desc.Vendor),
			Product: uint16(desc.Product),
			Speed:   desc.Speed.String(),
			Class:   desc.Class.String(),
		})
		return false
	}
}

// SerialPorts lists USB serial ports with the given vendor id,
// or all USB serial ports when vendor is 0.
func SerialPorts(vendor uint16) ([]SerialPort, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return filterPorts(ports, vendor), nil
}

func filterPorts(ports []*enumerator.PortDetails, vendor uint16) []SerialPort {
	var out []SerialPort
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		portVID, err := strconv.ParseUint(port.VID, 16, 16)
		if err != nil {
			continue
		}
		portPID, err := strconv.ParseUint(port.PID, 16, 16)
		if err != nil {
			continue
		}
		if vendor != 0 && uint16(portVID) != vendor {
			continue
		}
		out = append(out, SerialPort{
			Name:    port.Name,
			VID:     uint16(portVID),
			PID:     uint16(portPID),
			Serial:  port.SerialNumber,
			Product: port.Product,
		})
	}
	return out
}
