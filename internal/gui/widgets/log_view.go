package widgets

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

const DefaultMaxLogLines = 5000

// LogView is a scrolling list of text lines, newest at the bottom.
type LogView struct {
	mu       sync.RWMutex
	lines    []string
	maxLines int
	list     *widget.List
}

func NewLogView(maxLines int) *LogView {
	if maxLines <= 0 {
		maxLines = DefaultMaxLogLines
	}
	lv := &LogView{lines: make([]string, 0), maxLines: maxLines}
	lv.list = widget.NewList(
		lv.length,
		func() fyne.CanvasObject { return widget.NewLabel("") },
		lv.update,
	)
	return lv
}

func (lv *LogView) length() int {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return len(lv.lines)
}

func (lv *LogView) update(id widget.ListItemID, item fyne.CanvasObject) {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	if id < 0 || id >= len(lv.lines) {
		return
	}
	item.(*widget.Label).SetText(lv.lines[id])
}

func (lv *LogView) Append(line string) {
	lv.mu.Lock()
	lv.lines = append(lv.lines, line)
	if over := len(lv.lines) - lv.maxLines; over > 0 {
		lv.lines = append(lv.lines[:0:0], lv.lines[over:]...)
	}
	lv.mu.Unlock()

	lv.list.Refresh()
	lv.list.ScrollToBottom()
}

func (lv *LogView) Clear() {
	lv.mu.Lock()
	lv.lines = make([]string, 0)
	lv.mu.Unlock()
	lv.list.Refresh()
}

func (lv *LogView) Lines() []string {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	out := make([]string, len(lv.lines))
	copy(out, lv.lines)
	return out
}

func (lv *LogView) GetObject() fyne.CanvasObject {
	return lv.list
}
