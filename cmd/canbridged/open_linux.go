//go:build linux

package main

import "github.com/notnil/canbridge"

func openTransport(device string) (canbridge.Transport, error) {
	return canbridge.OpenSocketCAN(device)
}
