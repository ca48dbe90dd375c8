package native

import (
	"github.com/sergev/spectran/backend"
	"github.com/sergev/spectran/config"
	"github.com/sergev/spectran/driver"
)

func init() {
	backend.Register("native", "RTSA API shared library",
		func(conf *config.Config) (driver.Driver, func(), error) {
			path := conf.Library
			if path == "" {
				path = DefaultPath
			}
			lib, err := Acquire(path)
			if err != nil {
				return nil, nil, err
			}
			return lib, lib.Release, nil
		})
}
