//go:build linux

package main

import (
	"github.com/sirupsen/logrus"

	"code.hybscloud.com/netfab/engine"
	"code.hybscloud.com/netfab/fblock/linkfb"
)

// attachLink opens a raw AF_PACKET device named linkName and attaches
// the link-layer source FB to eng's registry (spec.md §4.6).
func attachLink(eng *engine.Engine, linkName string, log *logrus.Logger) {
	dev, err := linkfb.OpenRawDevice(linkName)
	if err != nil {
		log.WithError(err).WithField("iface", linkName).Fatal("netfabd: open link device")
	}

	fb, err := linkfb.Attach(eng.Registry, linkName, dev, len(eng.Workers))
	if err != nil {
		log.WithError(err).Fatal("netfabd: attach link FB")
	}

	go func() {
		if err := fb.Run(eng.Workers[0], 0); err != nil {
			log.WithError(err).Warn("netfabd: link device ingress loop exited")
		}
	}()
}
