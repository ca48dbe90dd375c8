package device

import (
	"context"
	stderrors "errors"
	"math"
	"testing"
	"time"

	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/errors"
	"github.com/sergev/spectran/result"
	"github.com/sergev/spectran/retry"
	"github.com/sergev/spectran/sim"
)

func apiHandle(t *testing.T, d *sim.Driver) driver.Handle {
	t.Helper()
	var h driver.Handle
	if code := d.Init(driver.MemorySmall); code != result.OK {
		t.Fatalf("Init = %v", code)
	}
	if code := d.Open(&h); code != result.OK {
		t.Fatalf("Open = %v", code)
	}
	return h
}

func openSession(t *testing.T, d *sim.Driver, opts Options) *Session {
	t.Helper()
	s, err := Open(d, apiHandle(t, d), "SIM0001", driver.SpectranV6, driver.ModeIQReceiver, opts)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return s
}

func checkInvariant(t *testing.T, s *Session) {
	t.Helper()
	if s.IsStarted() && !s.IsConnected() {
		t.Error("started but not connected")
	}
	if s.IsConnected() && !s.IsOpen() {
		t.Error("connected but not open")
	}
}

// lifecycleCalls returns the teardown procedures in call order.
func lifecycleCalls(d *sim.Driver) []string {
	var out []string
	for _, c := range d.Calls() {
		switch c {
		case "StopDevice", "DisconnectDevice", "CloseDevice":
			out = append(out, c)
		}
	}
	return out
}

func TestLifecycle(t *testing.T) {
	d := sim.NewDemo()
	s := openSession(t, d, Options{})
	if s.Mode() != "spectranv6/iqreceiver" {
		t.Errorf("Mode() = %q", s.Mode())
	}
	if s.ID() == "" {
		t.Error("empty session id")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	checkInvariant(t, s)
	if !s.IsConnected() {
		t.Error("Start() did not connect")
	}
	if err := s.Start(); err != nil {
		t.Errorf("second Start() error: %v", err)
	}
	if n := d.CallCount("StartDevice"); n != 1 {
		t.Errorf("StartDevice called %d times", n)
	}

	s.Close()
	checkInvariant(t, s)
	if s.IsOpen() {
		t.Error("open after Close()")
	}
	got := lifecycleCalls(d)
	want := []string{"StopDevice", "DisconnectDevice", "CloseDevice"}
	if len(got) != len(want) {
		t.Fatalf("teardown calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("teardown calls = %v, want %v", got, want)
			break
		}
	}

	s.Close()
	if n := d.CallCount("CloseDevice"); n != 1 {
		t.Errorf("CloseDevice called %d times", n)
	}
	if err := s.Connect(); !errors.HasKind(err, errors.KindDeviceNotOpen) {
		t.Errorf("Connect() after Close() = %v, want device_not_open", err)
	}
}

func TestOpenFailure(t *testing.T) {
	d := sim.NewDemo()
	_, err := Open(d, apiHandle(t, d), "NOPE", driver.SpectranV6, driver.ModeRTSA, Options{})
	if !errors.HasKind(err, errors.KindDeviceOpen) {
		t.Fatalf("Open() error = %v, want device_open_failure", err)
	}
	if code, _ := errors.CodeOf(err); code != result.ErrorNotFound {
		t.Errorf("code = %v", code)
	}
}

func TestConnectFailure(t *testing.T) {
	d := sim.NewDemo()
	s := openSession(t, d, Options{})
	defer s.Close()

	d.Force("ConnectDevice", result.ErrorBusy)
	err := s.Start()
	if !errors.HasKind(err, errors.KindDeviceConnect) {
		t.Fatalf("Start() error = %v, want device_connect_failure", err)
	}
	checkInvariant(t, s)
	if s.IsConnected() || s.IsStarted() {
		t.Error("flags set after failed connect")
	}
	if d.CallCount("StartDevice") != 0 {
		t.Error("StartDevice called after failed connect")
	}
}

func TestStartFailure(t *testing.T) {
	d := sim.NewDemo()
	s := openSession(t, d, Options{})
	defer s.Close()

	d.Force("StartDevice", result.ErrorNotConnected)
	if err := s.Start(); !errors.HasKind(err, errors.KindDeviceStart) {
		t.Fatalf("Start() error = %v, want device_start_failure", err)
	}
	checkInvariant(t, s)
	if !s.IsConnected() || s.IsStarted() {
		t.Errorf("connected=%v started=%v", s.IsConnected(), s.IsStarted())
	}
}

func TestCloseIsBestEffort(t *testing.T) {
	d := sim.NewDemo()
	closed := 0
	s := openSession(t, d, Options{OnClose: func() { closed++ }})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	d.Force("StopDevice", result.ErrorBusy)
	d.Force("DisconnectDevice", result.ErrorBusy)
	s.Close()

	checkInvariant(t, s)
	if s.IsOpen() || s.IsConnected() || s.IsStarted() {
		t.Error("flags still set after Close()")
	}
	if len(lifecycleCalls(d)) != 3 {
		t.Errorf("teardown calls = %v", lifecycleCalls(d))
	}
	if closed != 1 {
		t.Errorf("OnClose called %d times", closed)
	}
}

func TestWith(t *testing.T) {
	d := sim.NewDemo()
	h := apiHandle(t, d)
	boom := stderrors.New("boom")
	err := With(d, h, "SIM0001", driver.SpectranV6, driver.ModeRTSA, Options{}, func(s *Session) error {
		if err := s.Connect(); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Errorf("With() = %v, want boom", err)
	}
	if d.CallCount("CloseDevice") != 1 || d.CallCount("DisconnectDevice") != 1 {
		t.Errorf("calls = %v", d.Calls())
	}
}

func TestState(t *testing.T) {
	d := sim.NewDemo()
	s := openSession(t, d, Options{})
	defer s.Close()

	if st, err := s.State(); err != nil || st != result.StateIdle {
		t.Errorf("State() = %v, %v", st, err)
	}
	d.Force("GetDeviceState", result.OK)
	if _, err := s.State(); !errors.HasKind(err, errors.KindStateQuery) {
		t.Errorf("State() on OK = %v, want state_query_failure", err)
	}
}

func TestWaitUntilRunning(t *testing.T) {
	d := sim.NewDemo()
	d.StartingPolls = 3
	s := openSession(t, d, Options{})
	defer s.Close()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.WaitUntilRunning(context.Background()); err != nil {
		t.Fatalf("WaitUntilRunning() error: %v", err)
	}
	if n := d.CallCount("GetDeviceState"); n != 4 {
		t.Errorf("GetDeviceState called %d times, want 4", n)
	}
}

func TestWaitUntilRunningBusyWait(t *testing.T) {
	d := sim.NewDemo()
	d.StartingPolls = 5
	policy := retry.Policy{
		Sleep: func(ctx context.Context, _ time.Duration) error {
			t.Error("zero interval slept")
			return nil
		},
	}
	s := openSession(t, d, Options{State: policy})
	defer s.Close()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.WaitUntilRunning(context.Background()); err != nil {
		t.Fatalf("WaitUntilRunning() error: %v", err)
	}
	if n := d.CallCount("GetDeviceState"); n != 6 {
		t.Errorf("GetDeviceState called %d times, want 6", n)
	}
}

func TestWaitUntilRunningError(t *testing.T) {
	d := sim.NewDemo()
	s := openSession(t, d, Options{})
	defer s.Close()
	s.Start()

	d.Force("GetDeviceState", result.Starting, result.ErrorNotConnected)
	err := s.WaitUntilRunning(context.Background())
	if !errors.HasKind(err, errors.KindStateQuery) {
		t.Fatalf("WaitUntilRunning() error = %v, want state_query_failure", err)
	}
	if code, _ := errors.CodeOf(err); code != result.ErrorNotConnected {
		t.Errorf("code = %v", code)
	}
}

func TestWaitUntilRunningCancel(t *testing.T) {
	d := sim.NewDemo()
	d.StartingPolls = math.MaxInt32
	s := openSession(t, d, Options{State: retry.Policy{Interval: time.Millisecond}})
	defer s.Close()
	s.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.WaitUntilRunning(ctx)
	if !errors.HasKind(err, errors.KindStateQuery) || !stderrors.Is(err, context.Canceled) {
		t.Errorf("WaitUntilRunning() error = %v", err)
	}
}

func TestMasterStreamTime(t *testing.T) {
	d := sim.NewDemo()
	s := openSession(t, d, Options{})
	defer s.Close()

	if _, err := s.MasterStreamTime(); !errors.HasKind(err, errors.KindStateQuery) {
		t.Errorf("MasterStreamTime() before start = %v", err)
	}
	s.Start()
	if _, err := s.MasterStreamTime(); err != nil {
		t.Errorf("MasterStreamTime() error: %v", err)
	}
}
