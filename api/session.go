// Package api owns the process-wide RTSA API handle: driver
// initialization, device discovery and the device sessions opened
// through it.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/sergev/spectran/device"
	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/handles"
	"github.com/sergev/spectran/logging"
	"github.com/sergev/spectran/result"
	"github.com/sergev/spectran/retry"
	"go.uber.org/zap"
)

// DeviceInfo is a snapshot of one enumerated receiver.
type DeviceInfo struct {
	Serial     string
	Ready      bool
	Boost      bool
	Superspeed bool
	Active     bool
}

// Version is the API library version.
type Version struct {
	Major    uint32
	Revision uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Revision)
}

// Options tunes an API session.
type Options struct {
	// Scan is the wait policy while a rescan answers RETRY.
	Scan retry.Policy

	// Device is passed to every device session opened.
	Device device.Options
}

// Session is an initialized driver with an open API handle.
type Session struct {
	drv     driver.Driver
	handle  driver.Handle
	opts    Options
	open    bool
	devices []DeviceInfo

	sessions handles.Table[*device.Session]
}

// Open initializes the driver and opens the API handle.
// If the handle cannot be opened the driver is shut down again.
func Open(drv driver.Driver, memory driver.MemoryMode, opts Options) (*Session, error) {
	if code := drv.Init(memory); code != result.OK {
		return nil, errors.New(errors.KindInit, "init").Code(code).Detail("memory %s", memory).Build()
	}
	s := &Session{drv: drv, opts: opts}
	if code := drv.Open(&s.handle); code != result.OK {
		if sc := drv.Shutdown(); sc != result.OK {
			logging.For("api").Warn("shutdown failed", zap.Stringer("code", sc))
		}
		return nil, errors.FromCode(errors.KindOpen, "open", code)
	}
	s.open = true
	logging.For("api").Info("api opened", zap.Stringer("memory", memory))
	return s, nil
}

// With opens an API session, runs fn and closes the session
// whether or not fn succeeds.
func With(drv driver.Driver, memory driver.MemoryMode, opts Options, fn func(*Session) error) error {
	s, err := Open(drv, memory, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// Handle returns the API handle.
func (s *Session) Handle() driver.Handle { return s.handle }

// Version returns the library version.
func (s *Session) Version() Version {
	v := s.drv.Version()
	return Version{Major: v >> 16, Revision: v & 0xFFFF}
}

// RescanDevices asks the driver to look for devices, repeating
// the request while it answers RETRY.
func (s *Session) RescanDevices(ctx context.Context, timeout time.Duration) error {
	ms := int32(timeout / time.Millisecond)
	for attempt := 1; ; attempt++ {
		code := s.drv.RescanDevices(&s.handle, ms)
		switch result.Classify(code).Band {
		case result.BandOK:
			return nil
		case result.BandRetry:
		default:
			return errors.FromCode(errors.KindScan, "rescan devices", code)
		}
		if err := s.opts.Scan.Wait(ctx, attempt); err != nil {
			return errors.New(errors.KindScan, "rescan devices").Code(code).Cause(err).Build()
		}
	}
}

// ResetDevices resets every device known to the driver.
func (s *Session) ResetDevices() error {
	if code := s.drv.ResetDevices(&s.handle); code != result.OK {
		return errors.FromCode(errors.KindReset, "reset devices", code)
	}
	return nil
}

// EnumerateDevices rescans and lists the devices of a type. Listing
// stops at the first index the driver does not answer with OK.
// The result is kept until the next enumeration.
func (s *Session) EnumerateDevices(ctx context.Context, typ driver.DeviceType, timeout time.Duration) ([]DeviceInfo, error) {
	if err := s.RescanDevices(ctx, timeout); err != nil {
		return nil, err
	}
	var list []DeviceInfo
	info := driver.NewDeviceInfo()
	for i := int32(0); ; i++ {
		code := s.drv.EnumDevice(&s.handle, typ.String(), i, info)
		if code != result.OK {
			logging.For("api").Debug("enumeration done", zap.Int32("index", i), zap.Stringer("code", code))
			break
		}
		list = append(list, DeviceInfo{
			Serial:     info.Serial(),
			Ready:      info.Ready,
			Boost:      info.Boost,
			Superspeed: info.Superspeed,
			Active:     info.Active,
		})
	}
	s.devices = list
	return list, nil
}

// Devices returns the result of the last enumeration.
func (s *Session) Devices() []DeviceInfo {
	return s.devices
}

// OpenDevice opens a device session. The session stays tracked until
// it is closed, and Close closes it if the caller has not.
func (s *Session) OpenDevice(serial string, typ driver.DeviceType, mode driver.DeviceMode) (*device.Session, error) {
	if !s.open {
		return nil, errors.New(errors.KindDeviceOpen, "open device").Detail("api session closed").Build()
	}
	opts := s.opts.Device
	var tok handles.Token
	onClose := opts.OnClose
	opts.OnClose = func() {
		s.sessions.Delete(tok)
		if onClose != nil {
			onClose()
		}
	}
	ds, err := device.Open(s.drv, s.handle, serial, typ, mode, opts)
	if err != nil {
		return nil, err
	}
	tok = s.sessions.Put(ds)
	return ds, nil
}

// WithDevice opens a device session, runs fn and closes the device
// whether or not fn succeeds.
func (s *Session) WithDevice(serial string, typ driver.DeviceType, mode driver.DeviceMode, fn func(*device.Session) error) error {
	ds, err := s.OpenDevice(serial, typ, mode)
	if err != nil {
		return err
	}
	defer ds.Close()
	return fn(ds)
}

// OpenDevices returns the device sessions still open.
func (s *Session) OpenDevices() []*device.Session {
	return s.sessions.Values()
}

// Close closes every device session still open, then the API handle,
// then shuts the driver down. Failures are logged.
func (s *Session) Close() {
	if !s.open {
		return
	}
	for _, ds := range s.sessions.Values() {
		logging.For("api").Info("closing device left open", zap.String("serial", ds.Serial()))
		ds.Close()
	}
	s.sessions.Reset()

	if code := s.drv.Close(&s.handle); code != result.OK {
		logging.For("api").Warn("close failed", zap.Stringer("code", code))
	}
	if code := s.drv.Shutdown(); code != result.OK {
		logging.For("api").Warn("shutdown failed", zap.Stringer("code", code))
	}
	s.open = false
	logging.For("api").Info("api closed")
}
