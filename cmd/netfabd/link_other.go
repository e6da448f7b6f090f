//go:build !linux

package main

import (
	"github.com/sirupsen/logrus"

	"code.hybscloud.com/netfab/engine"
)

// attachLink is a no-op on platforms without an AF_PACKET implementation
// (spec.md §4.6's OS rx handler is Linux-specific; see
// fblock/linkfb/device_linux.go).
func attachLink(_ *engine.Engine, linkName string, log *logrus.Logger) {
	log.WithField("iface", linkName).Warn("netfabd: link-layer source FB unavailable on this platform")
}
