// Package backend maps backend names to constructors of a driver.Driver.
package backend

import (
	"fmt"
	"sort"

	"github.com/sergev/spectran/config"
	"github.com/sergev/spectran/driver"
)

// Factory creates a driver from the settings. The returned release
// function must be called once the driver is no longer used.
type Factory func(conf *config.Config) (driver.Driver, func(), error)

// Info contains information about a backend
type Info struct {
	Name        string
	Description string
	Factory     Factory
}

var registeredBackends []Info

// Register registers a backend factory under a name
func Register(name, description string, factory Factory) {
	registeredBackends = append(registeredBackends, Info{
		Name:        name,
		Description: description,
		Factory:     factory,
	})
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Info, bool) {
	for _, b := range registeredBackends {
		if b.Name == name {
			return b, true
		}
	}
	return Info{}, false
}

// Names returns the registered backend names, sorted.
func Names() []string {
	names := make([]string, 0, len(registeredBackends))
	for _, b := range registeredBackends {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// Open creates a driver using the backend selected in the settings.
func Open(conf *config.Config) (driver.Driver, func(), error) {
	b, ok := Lookup(conf.Backend)
	if !ok {
		return nil, nil, fmt.Errorf("unknown backend %q (available: %v)", conf.Backend, Names())
	}
	drv, release, err := b.Factory(conf)
	if err != nil {
		return nil, nil, fmt.Errorf("backend %s: %w", b.Name, err)
	}
	if release == nil {
		release = func() {}
	}
	return drv, release, nil
}
