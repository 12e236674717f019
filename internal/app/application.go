package app

import (
	"quantum-sensing/internal/config"
	"quantum-sensing/internal/events"
	"quantum-sensing/internal/gui"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName         = "Quantum Sensing Apparatus"
	AppID           = "com.quantumsensing.apparatus"
	AppVersion      = "1.0.0"
	MinWindowWidth  = 960
	MinWindowHeight = 600
)

type Application struct {
	fyneApp    fyne.App
	window     fyne.Window
	view       *gui.View
	controller *gui.Controller
	lifecycle  *Lifecycle
	logger     logger.Logger
}

func NewApplication(cfg config.Config, log logger.Logger) (*Application, error) {
	return newApplication(app.NewWithID(AppID), cfg, log)
}

func newApplication(fyneApp fyne.App, cfg config.Config, log logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NoOp{}
	}

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(MinWindowWidth, MinWindowHeight))
	window.CenterOnScreen()
	window.SetMaster()

	log.Info("Application", "starting application", map[string]interface{}{
		"version":       AppVersion,
		"window_width":  MinWindowWidth,
		"window_height": MinWindowHeight,
		"mqtt_enabled":  cfg.MQTT.Enabled(),
	})

	lifecycle, err := NewLifecycle(cfg, log)
	if err != nil {
		return nil, err
	}

	view := gui.NewView(window, models.SensorKinds())
	controller := gui.NewController(lifecycle.Context(), lifecycle.Experiment, log)
	view.SetController(controller)
	controller.SetView(view)
	lifecycle.Bus.Subscribe(events.All, controller)

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		view:       view,
		controller: controller,
		lifecycle:  lifecycle,
		logger:     log,
	}

	application.setupMenus()

	log.Info("Application", "initialization complete", nil)
	return application, nil
}

func (a *Application) Run() error {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "shutdown requested", nil)
		a.lifecycle.Shutdown()
		a.window.Close()
	})

	a.lifecycle.ListenForSignals()
	go func() {
		<-a.lifecycle.Done()
		fyne.Do(a.fyneApp.Quit)
	}()

	a.view.Show()
	a.logger.Info("Application", "GUI displayed", nil)
	a.fyneApp.Run()

	a.lifecycle.Shutdown()
	return nil
}
