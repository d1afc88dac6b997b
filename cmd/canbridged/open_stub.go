//go:build !linux

package main

import (
	"errors"

	"github.com/notnil/canbridge"
)

func openTransport(string) (canbridge.Transport, error) {
	return nil, errors.New("socketcan transport requires linux")
}
