package widgets

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	StartLabel = "Start Experiment"
	StopLabel  = "Stop Experiment"
	SaveLabel  = "Save Data"
)

// ControlPanel holds the sensor selector, run parameters and run controls.
type ControlPanel struct {
	container     *fyne.Container
	sensorSelect  *widget.Select
	durationEntry *widget.Entry
	intervalEntry *widget.Entry
	runButton     *widget.Button
	saveButton    *widget.Button
	statusLabel   *widget.Label
	progressBar   *widget.ProgressBar
	running       bool

	sensorChangeHandler func(string)
	startHandler        func()
	stopHandler         func()
	saveHandler         func()
}

func NewControlPanel(sensors []string) *ControlPanel {
	panel := &ControlPanel{}
	panel.createComponents(sensors)
	panel.buildLayout()
	return panel
}

func (p *ControlPanel) createComponents(sensors []string) {
	p.sensorSelect = widget.NewSelect(sensors, p.onSensorChanged)
	p.sensorSelect.PlaceHolder = "Select sensor"

	p.durationEntry = widget.NewEntry()
	p.durationEntry.SetPlaceHolder("seconds")

	p.intervalEntry = widget.NewEntry()
	p.intervalEntry.SetPlaceHolder("milliseconds")

	p.runButton = widget.NewButton(StartLabel, p.onRunTapped)
	p.runButton.Importance = widget.HighImportance

	p.saveButton = widget.NewButton(SaveLabel, p.onSaveTapped)
	p.saveButton.Importance = widget.MediumImportance

	p.statusLabel = widget.NewLabel("Ready")
	p.progressBar = widget.NewProgressBar()
	p.progressBar.Hide()
}

func (p *ControlPanel) buildLayout() {
	background := canvas.NewRectangle(color.NRGBA{R: 248, G: 249, B: 250, A: 255})

	form := widget.NewForm(
		widget.NewFormItem("Sensor", p.sensorSelect),
		widget.NewFormItem("Duration (s)", p.durationEntry),
		widget.NewFormItem("Interval (ms)", p.intervalEntry),
	)

	actions := container.NewHBox(
		p.runButton,
		widget.NewSeparator(),
		p.saveButton,
	)

	statusGroup := container.NewVBox(
		widget.NewLabel("Status"),
		p.statusLabel,
		p.progressBar,
	)

	p.container = container.NewStack(
		background,
		container.NewPadded(container.NewVBox(form, actions, statusGroup)),
	)
}

func (p *ControlPanel) GetContainer() *fyne.Container {
	return p.container
}

func (p *ControlPanel) SetSensorChangeHandler(handler func(string)) {
	p.sensorChangeHandler = handler
}

func (p *ControlPanel) SetStartHandler(handler func()) {
	p.startHandler = handler
}

func (p *ControlPanel) SetStopHandler(handler func()) {
	p.stopHandler = handler
}

func (p *ControlPanel) SetSaveHandler(handler func()) {
	p.saveHandler = handler
}

func (p *ControlPanel) onSensorChanged(sensor string) {
	if p.sensorChangeHandler != nil {
		p.sensorChangeHandler(sensor)
	}
}

// onRunTapped toggles between start and stop.
func (p *ControlPanel) onRunTapped() {
	if p.running {
		if p.stopHandler != nil {
			p.stopHandler()
		}
		return
	}
	if p.startHandler != nil {
		p.startHandler()
	}
}

func (p *ControlPanel) onSaveTapped() {
	if p.saveHandler != nil {
		p.saveHandler()
	}
}

// SelectSensor changes the selector without notifying the change handler.
func (p *ControlPanel) SelectSensor(sensor string) {
	p.sensorSelect.Selected = sensor
	p.sensorSelect.Refresh()
}

func (p *ControlPanel) SetParameters(duration, interval string) {
	p.durationEntry.SetText(duration)
	p.intervalEntry.SetText(interval)
}

// Values returns the selector and field contents as typed by the user.
func (p *ControlPanel) Values() (sensor, duration, interval string) {
	return p.sensorSelect.Selected, p.durationEntry.Text, p.intervalEntry.Text
}

func (p *ControlPanel) Running() bool {
	return p.running
}

func (p *ControlPanel) SetRunning(running bool) {
	p.running = running
	if running {
		p.runButton.SetText(StopLabel)
		p.runButton.Importance = widget.DangerImportance
		p.sensorSelect.Disable()
		p.durationEntry.Disable()
		p.intervalEntry.Disable()
		p.saveButton.Disable()
		p.progressBar.SetValue(0)
		p.progressBar.Show()
	} else {
		p.runButton.SetText(StartLabel)
		p.runButton.Importance = widget.HighImportance
		p.sensorSelect.Enable()
		p.durationEntry.Enable()
		p.intervalEntry.Enable()
		p.saveButton.Enable()
		p.progressBar.Hide()
	}
	p.runButton.Refresh()
}

func (p *ControlPanel) SetStatus(status string) {
	p.statusLabel.SetText(status)
}

func (p *ControlPanel) Status() string {
	return p.statusLabel.Text
}

func (p *ControlPanel) SetProgress(progress float64) {
	p.progressBar.SetValue(progress)
}

func (p *ControlPanel) RunButtonText() string {
	return p.runButton.Text
}

// RunButton and SaveButton expose the buttons to menus and tests.
func (p *ControlPanel) RunButton() *widget.Button  { return p.runButton }
func (p *ControlPanel) SaveButton() *widget.Button { return p.saveButton }
