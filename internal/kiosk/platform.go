package kiosk

import (
	"context"
	"errors"
	"log"

	"github.com/gen2brain/beeep"

	"github.com/GillesGroulard/familisapp/internal/realtime"
)

var ErrNoDisplay = errors.New("no display connected")

// Display drives the kiosk screen of one family through its websocket
// topic. When HostChime is set, new-item sounds also beep on the machine
// running the service, for kiosks wired straight to it.
type Display struct {
	hub       *realtime.Hub
	topic     string
	hostChime bool
}

func NewDisplay(hub *realtime.Hub, topic string, hostChime bool) *Display {
	return &Display{hub: hub, topic: topic, hostChime: hostChime}
}

func (d *Display) EnterFullscreen(ctx context.Context) error {
	return d.command(ctx, realtime.Command{Name: realtime.CommandFullscreenEnter})
}

func (d *Display) ExitFullscreen(ctx context.Context) error {
	return d.command(ctx, realtime.Command{Name: realtime.CommandFullscreenExit})
}

func (d *Display) PlaySound(ctx context.Context, name string) error {
	if d.hostChime {
		if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
			log.Printf("slideshow-service: host chime: %v", err)
		}
	}
	return d.command(ctx, realtime.Command{Name: realtime.CommandSoundPlay, Sound: name})
}

func (d *Display) command(ctx context.Context, cmd realtime.Command) error {
	n, err := d.hub.Connected(ctx, d.topic)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoDisplay
	}
	data, err := realtime.Encode(realtime.TypeCommand, cmd)
	if err != nil {
		return err
	}
	return d.hub.Publish(ctx, d.topic, data)
}
