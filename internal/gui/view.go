package gui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"quantum-sensing/internal/gui/widgets"
	"quantum-sensing/internal/storage"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fynestorage "fyne.io/fyne/v2/storage"
)

const logCapacity = 5000

// View handles all UI components and their layout
type View struct {
	window     fyne.Window
	controller *Controller

	controlPanel  *widgets.ControlPanel
	chart         *widgets.Chart
	logView       *widgets.LogView
	mainContainer *fyne.Container
}

func NewView(window fyne.Window, sensors []string) *View {
	view := &View{
		window: window,
	}

	view.setupComponents(sensors)
	view.setupLayout()

	return view
}

func (v *View) SetController(controller *Controller) {
	v.controller = controller
	v.setupEventHandlers()
}

func (v *View) setupComponents(sensors []string) {
	v.controlPanel = widgets.NewControlPanel(sensors)
	v.chart = widgets.NewChart("Sensor Readings", "Time (s)", "Reading", 0, 100)
	v.logView = widgets.NewLogView(logCapacity)
}

func (v *View) setupLayout() {
	right := container.NewVSplit(v.chart, v.logView.GetObject())
	right.SetOffset(0.6)

	v.mainContainer = container.NewBorder(
		nil, nil,
		v.controlPanel.GetContainer(), nil,
		right,
	)
}

func (v *View) setupEventHandlers() {
	if v.controller == nil {
		return
	}

	v.controlPanel.SetSensorChangeHandler(v.controller.ChangeSensor)
	v.controlPanel.SetStartHandler(v.controller.StartExperiment)
	v.controlPanel.SetStopHandler(v.controller.StopExperiment)
	v.controlPanel.SetSaveHandler(v.controller.SaveData)
}

func (v *View) GetMainContainer() *fyne.Container {
	return v.mainContainer
}

func (v *View) ControlPanel() *widgets.ControlPanel { return v.controlPanel }
func (v *View) Chart() *widgets.Chart               { return v.chart }
func (v *View) LogView() *widgets.LogView           { return v.logView }

func (v *View) ShowError(err error) {
	dialog.ShowError(err, v.window)
}

func (v *View) ShowInformation(title, message string) {
	dialog.ShowInformation(title, message, v.window)
}

// ShowSaveDialog asks for a destination file and passes its local path to
// callback. A cancelled dialog calls back with an empty path and nil error.
func (v *View) ShowSaveDialog(defaultName string, callback func(path string, err error)) {
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			callback("", err)
			return
		}
		if writer == nil {
			callback("", nil)
			return
		}

		// The series is written by path, the dialog's handle is not needed.
		writer.Close()

		path, err := seriesPath(writer.URI().Path())
		if err != nil {
			callback("", err)
			return
		}
		callback(path, nil)
	}, v.window)

	save.SetFileName(defaultName)
	save.SetFilter(fynestorage.NewExtensionFileFilter([]string{storage.FileExtension}))
	save.Show()
}

// seriesPath adds the series extension when the chosen name lacks it. The
// dialog has already created the chosen file, so that empty file is removed.
func seriesPath(chosen string) (string, error) {
	if strings.EqualFold(filepath.Ext(chosen), storage.FileExtension) {
		return chosen, nil
	}
	if err := os.Remove(chosen); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("remove %s: %w", chosen, err)
	}
	return chosen + storage.FileExtension, nil
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
}
