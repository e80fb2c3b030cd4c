// Package tray puts a small status item in the system tray with a menu
// entry for stopping the daemon. Tray support is best-effort: on desktops
// without a StatusNotifierItem host the item simply never appears and the
// daemon keeps running.
package tray

import (
	_ "embed"

	"fyne.io/systray"
)

//go:embed icon.png
var iconBytes []byte

// Options configures the tray item.
type Options struct {
	Tooltip string
	OnQuit  func()
}

// Controller removes the tray item again.
type Controller struct{}

// Start runs the tray loop on its own goroutine and returns immediately.
func Start(opts Options) *Controller {
	go systray.Run(func() { onReady(opts) }, nil)
	return &Controller{}
}

// Stop removes the tray item. Safe to call even when the item never
// finished registering.
func (c *Controller) Stop() {
	systray.Quit()
}

func onReady(opts Options) {
	systray.SetIcon(iconBytes)
	systray.SetTitle("shybar")
	if opts.Tooltip != "" {
		systray.SetTooltip(opts.Tooltip)
	}

	quit := systray.AddMenuItem("Quit shybar", "Stop the daemon and restore the panel")
	go func() {
		<-quit.ClickedCh
		if opts.OnQuit != nil {
			opts.OnQuit()
		}
	}()
}
