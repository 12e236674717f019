package app

import (
	"fmt"

	"quantum-sensing/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

func (a *Application) setupMenus() {
	saveItem := fyne.NewMenuItem("Save Series...", a.handleSave)
	quitItem := fyne.NewMenuItem("Quit", a.handleQuit)
	quitItem.IsQuit = true

	toggleItem := fyne.NewMenuItem("Start / Stop", a.controller.ToggleExperiment)
	aboutItem := fyne.NewMenuItem("About", a.handleAbout)

	fileMenu := fyne.NewMenu("File", saveItem, fyne.NewMenuItemSeparator(), quitItem)
	experimentMenu := fyne.NewMenu("Experiment", toggleItem, fyne.NewMenuItemSeparator())
	for _, profile := range models.Profiles() {
		kind := string(profile.Kind)
		experimentMenu.Items = append(experimentMenu.Items, fyne.NewMenuItem(kind+" Profile", func() {
			a.selectSensor(kind)
		}))
	}
	helpMenu := fyne.NewMenu("Help", aboutItem)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, experimentMenu, helpMenu))
}

func (a *Application) selectSensor(sensor string) {
	if a.lifecycle.Experiment.State() == models.Running {
		return
	}
	a.view.ControlPanel().SelectSensor(sensor)
	a.controller.ChangeSensor(sensor)
}

func (a *Application) handleSave() {
	if a.lifecycle.Experiment.State() == models.Running {
		dialog.ShowInformation("Save Data", "Stop the experiment before saving.", a.window)
		return
	}
	a.controller.SaveData()
}

func (a *Application) handleQuit() {
	a.logger.Info("Application", "quit requested", nil)
	a.lifecycle.Shutdown()
	a.fyneApp.Quit()
}

func (a *Application) handleAbout() {
	text := fmt.Sprintf("%s %s\n\nSimulated sensor readings for %d profiles.", AppName, AppVersion, len(models.Profiles()))
	dialog.ShowInformation("About", text, a.window)
}
