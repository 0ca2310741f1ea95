package main

import (
	"context"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/depthportrait/internal/app"
	"github.com/ayusman/depthportrait/internal/control"
	"github.com/ayusman/depthportrait/internal/tray"
)

const (
	keyEsc      = 27
	keyQuit     = 'q'
	keySnapshot = 's'
)

// runWindow shows rendered frames until ESC or q is pressed or ctx ends.
// Key presses map to input events.
func runWindow(ctx context.Context, a *app.App, logger *zap.SugaredLogger) {
	window := gocv.NewWindow("depthportrait")
	defer window.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame := a.RenderedFrame()
		if !frame.Empty() {
			window.IMShow(frame)
		}
		frame.Close()

		key := window.WaitKeyEx(16)
		switch key {
		case -1:
			continue
		case keyEsc, keyQuit:
			return
		case keySnapshot:
			if snap, err := a.SaveSnapshot(); err != nil {
				logger.Warnw("snapshot failed", "error", err)
			} else {
				logger.Infow("snapshot saved", "path", snap.Path)
			}
			continue
		}

		if e, ok := control.KeyEvent(key); ok {
			a.Apply(e)
		}
	}
}

// runTray runs the system tray menu until Quit is chosen or ctx ends.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, logger *zap.SugaredLogger) {
	t := tray.New()
	t.SetSettings(a.Settings())
	t.OnEvent(a.Apply)
	t.OnSnapshot(func() {
		if _, err := a.SaveSnapshot(); err != nil {
			logger.Warnw("snapshot failed", "error", err)
		}
	})
	t.OnQuit(cancel)

	updates, unsubscribe := a.Subscribe()
	defer unsubscribe()

	go func() {
		lastCount := -1
		lastSettings := a.Settings()
		for u := range updates {
			if n := len(u.People); n != lastCount {
				t.SetPeopleCount(n)
				lastCount = n
			}
			if s := a.Settings(); s != lastSettings {
				t.SetSettings(s)
				lastSettings = s
			}
		}
	}()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}
