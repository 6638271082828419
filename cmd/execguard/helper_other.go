//go:build !linux

package main

import "errors"

func runLandlockHelper(_ []string) error {
	return errors.New("landlock helper is only supported on linux")
}
