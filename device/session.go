// Package device drives one opened receiver: its lifecycle
// (open, connect, start, stop, disconnect, close), its packet
// channels and its configuration tree.
package device

import (
	"context"

	"github.com/google/uuid"
	"github.com/sergev/spectran/conftree"
	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/handles"
	"github.com/sergev/spectran/logging"
	"github.com/sergev/spectran/result"
	"github.com/sergev/spectran/retry"
	"go.uber.org/zap"
)

// Options tunes a device session.
type Options struct {
	// Packet is the wait policy of GetPacket and Peek on an empty channel.
	Packet retry.Policy

	// State is the poll policy of WaitUntilRunning.
	State retry.Policy

	// OnClose, when set, is called once the device handle is closed.
	OnClose func()
}

// Session is an opened device.
// After every public operation started implies connected,
// and connected implies open.
type Session struct {
	drv    driver.Driver
	api    driver.Handle
	dev    driver.Device
	id     string
	serial string
	mode   string
	opts   Options

	isOpen      bool
	isConnected bool
	isStarted   bool

	nodes handles.Table[driver.Config]
	log   *zap.Logger
}

// Open opens the device with the given serial number in a mode of
// the given device type. The API handle must stay open while the
// session is in use.
func Open(drv driver.Driver, api driver.Handle, serial string, typ driver.DeviceType, mode driver.DeviceMode, opts Options) (*Session, error) {
	s := &Session{
		drv:    drv,
		api:    api,
		id:     uuid.NewString(),
		serial: serial,
		mode:   driver.ModeString(typ, mode),
		opts:   opts,
	}
	s.log = logging.For("device").With(zap.String("serial", serial), zap.String("session", s.id))

	if code := drv.OpenDevice(&s.api, &s.dev, s.mode, serial); code != result.OK {
		return nil, errors.New(errors.KindDeviceOpen, "open device").
			Code(code).Detail("serial %s, mode %s", serial, s.mode).Build()
	}
	s.isOpen = true
	s.log.Info("device opened", zap.String("mode", s.mode))
	return s, nil
}

// With opens a device session, runs fn and closes the session
// whether or not fn succeeds.
func With(drv driver.Driver, api driver.Handle, serial string, typ driver.DeviceType, mode driver.DeviceMode, opts Options, fn func(*Session) error) error {
	s, err := Open(drv, api, serial, typ, mode, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Serial returns the serial number of the device.
func (s *Session) Serial() string { return s.serial }

// Mode returns the "{type}/{mode}" string the device was opened with.
func (s *Session) Mode() string { return s.mode }

// IsOpen reports whether the device handle is open.
func (s *Session) IsOpen() bool { return s.isOpen }

// IsConnected reports whether the device is connected.
func (s *Session) IsConnected() bool { return s.isConnected }

// IsStarted reports whether the device is streaming.
func (s *Session) IsStarted() bool { return s.isStarted }

func (s *Session) notOpen(op string) error {
	return errors.New(errors.KindDeviceNotOpen, op).Detail("serial %s", s.serial).Build()
}

// Connect connects the device. Connecting a connected device does nothing.
func (s *Session) Connect() error {
	if s.isConnected {
		return nil
	}
	if !s.isOpen {
		return s.notOpen("connect device")
	}
	if code := s.drv.ConnectDevice(&s.dev); code != result.OK {
		return errors.FromCode(errors.KindDeviceConnect, "connect device", code)
	}
	s.isConnected = true
	s.log.Debug("device connected")
	return nil
}

// Start starts streaming, connecting first if needed.
// Starting a started device does nothing.
func (s *Session) Start() error {
	if s.isStarted {
		return nil
	}
	if !s.isOpen {
		return s.notOpen("start device")
	}
	if err := s.Connect(); err != nil {
		return err
	}
	if code := s.drv.StartDevice(&s.dev); code != result.OK {
		return errors.FromCode(errors.KindDeviceStart, "start device", code)
	}
	s.isStarted = true
	s.log.Debug("device started")
	return nil
}

// State queries the device's lifecycle phase.
func (s *Session) State() (result.State, error) {
	if !s.isOpen {
		return result.StateNone, s.notOpen("device state")
	}
	code := s.drv.GetDeviceState(&s.dev)
	class := result.Classify(code)
	if class.Band != result.BandState {
		return result.StateNone, errors.FromCode(errors.KindStateQuery, "device state", code)
	}
	return class.State, nil
}

// WaitUntilRunning polls the device state until it reports RUNNING.
// A zero State.Interval makes this a busy-wait that only yields the
// processor between polls. The wait ends with an error when a poll
// fails, when the state policy runs out of attempts or when ctx is done.
func (s *Session) WaitUntilRunning(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		state, err := s.State()
		if err != nil {
			return err
		}
		if state == result.StateRunning {
			return nil
		}
		if err := s.opts.State.Wait(ctx, attempt); err != nil {
			return errors.New(errors.KindStateQuery, "wait until running").
				Cause(err).Detail("last state %s after %d polls", state, attempt).Build()
		}
	}
}

// Stop stops streaming. Failures are logged; the session
// is considered stopped regardless.
func (s *Session) Stop() {
	if s.isStarted {
		if code := s.drv.StopDevice(&s.dev); code != result.OK {
			s.log.Warn("stop device failed", zap.Stringer("code", code))
		}
	}
	s.isStarted = false
}

// Disconnect stops and disconnects the device. Failures are logged;
// the session is considered disconnected regardless.
func (s *Session) Disconnect() {
	s.Stop()
	if s.isConnected {
		if code := s.drv.DisconnectDevice(&s.dev); code != result.OK {
			s.log.Warn("disconnect device failed", zap.Stringer("code", code))
		}
	}
	s.isConnected = false
}

// Close tears the session down in order: stop, disconnect, close.
// Configuration items issued by the session become stale.
// Closing a closed session does nothing.
func (s *Session) Close() {
	s.Stop()
	s.Disconnect()
	if s.isOpen {
		if code := s.drv.CloseDevice(&s.api, &s.dev); code != result.OK {
			s.log.Warn("close device failed", zap.Stringer("code", code))
		}
		s.isOpen = false
		s.nodes.Reset()
		s.log.Info("device closed")
		if s.opts.OnClose != nil {
			s.opts.OnClose()
		}
	}
}

func (s *Session) tree() conftree.Tree {
	return conftree.Tree{Driver: s.drv, Device: s.dev}
}
