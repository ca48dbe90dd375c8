package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/sergev/spectran/api"
	"github.com/sergev/spectran/backend"
	"github.com/sergev/spectran/device"
	"go.uber.org/zap"
)

func apiOptions() api.Options {
	return api.Options{
		Device: device.Options{
			Packet: conf.PacketPolicy(),
			State:  conf.StatePolicy(),
		},
	}
}

// withAPI opens the configured backend and an API session on it.
func withAPI(fn func(*api.Session) error) error {
	drv, release, err := backend.Open(conf)
	if err != nil {
		return err
	}
	defer release()
	logger.Debug("backend opened", zap.String("backend", conf.Backend))

	return api.With(drv, conf.MemoryMode(), apiOptions(), fn)
}

// withDevice enumerates devices and opens the configured one, or the
// first one found when no serial is configured.
func withDevice(ctx context.Context, fn func(*api.Session, *device.Session) error) error {
	return withAPI(func(s *api.Session) error {
		list, err := s.EnumerateDevices(ctx, conf.Type(), conf.ScanTimeout())
		if err != nil {
			return err
		}
		serial, err := pickSerial(list, conf.Serial)
		if err != nil {
			return err
		}
		return s.WithDevice(serial, conf.Type(), conf.Mode(), func(ds *device.Session) error {
			return fn(s, ds)
		})
	})
}

func pickSerial(list []api.DeviceInfo, want string) (string, error) {
	if len(list) == 0 {
		return "", errors.New("no device found")
	}
	if want == "" {
		return list[0].Serial, nil
	}
	for _, d := range list {
		if d.Serial == want {
			return want, nil
		}
	}
	return "", fmt.Errorf("device %s not found", want)
}
