// Package ports enumerates the serial ports a device may be attached to.
package ports

import (
	"errors"
	"fmt"
	"slices"

	"go.bug.st/serial"
)

// ErrNoPorts is returned when no serial port is available.
var ErrNoPorts = errors.New("no ports found")

// ErrUnknownPort is returned when the selected port isn't currently available.
var ErrUnknownPort = errors.New("unknown serial port")

// Registry lists the serial ports of the host.
type Registry interface {
	List() ([]string, error)
}

type serialRegistry struct{}

// NewRegistry returns a Registry using the platform serial enumeration.
func NewRegistry() Registry {
	return serialRegistry{}
}

func (serialRegistry) List() ([]string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}

	slices.Sort(names)

	return slices.Compact(names), nil
}

// Available returns the ports of registry, failing with ErrNoPorts when there are none.
func Available(registry Registry) ([]string, error) {
	names, err := registry.List()
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, ErrNoPorts
	}

	return names, nil
}

// Select validates that name is one of the available ports.
func Select(registry Registry, name string) (string, error) {
	names, err := Available(registry)
	if err != nil {
		return "", err
	}

	if !slices.Contains(names, name) {
		return "", fmt.Errorf("%w '%s'", ErrUnknownPort, name)
	}

	return name, nil
}
