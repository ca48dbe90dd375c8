package sim

import (
	"github.com/sergev/spectran/backend"
	"github.com/sergev/spectran/config"
	"github.com/sergev/spectran/driver"
)

func init() {
	backend.Register("sim", "simulated receiver, no hardware needed",
		func(conf *config.Config) (driver.Driver, func(), error) {
			d := NewDemo()
			if conf.Serial != "" {
				d.Devices[0].Serial = conf.Serial
			}
			return d, nil, nil
		})
}
