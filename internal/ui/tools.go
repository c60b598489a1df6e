package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"CanvasBoard/internal/board"
	"CanvasBoard/internal/drawing"
)

var toolNames = []string{"Brush", "Line", "Rectangle", "Circle", "Arrow", "Text", "Eraser"}

var toolByName = map[string]drawing.Tool{
	"Brush":     drawing.ToolBrush,
	"Line":      drawing.ToolLine,
	"Rectangle": drawing.ToolRectangle,
	"Circle":    drawing.ToolCircle,
	"Arrow":     drawing.ToolArrow,
	"Text":      drawing.ToolText,
	"Eraser":    drawing.ToolEraser,
}

var palette = []string{"#000000", "#e03131", "#2f9e44", "#1971c2", "#f08c00"}

// NewToolbar builds the tool strip: tool selector, color palette,
// stroke size slider and undo/redo.
func NewToolbar(ctrl *board.Controller) fyne.CanvasObject {
	style := drawing.Style{Stroke: palette[0], Size: 2}

	toolSelect := widget.NewSelect(toolNames, func(name string) {
		ctrl.SetTool(toolByName[name])
	})
	toolSelect.SetSelected("Brush")

	colorSelect := widget.NewSelect(palette, func(hex string) {
		style.Stroke = hex
		ctrl.SetStyle(style)
	})
	colorSelect.SetSelected(palette[0])

	sizeSlider := widget.NewSlider(1, 20)
	sizeSlider.SetValue(2)
	sizeSlider.OnChanged = func(v float64) {
		style.Size = v
		ctrl.SetStyle(style)
	}
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(140, 36)), sizeSlider)

	undoBtn := widget.NewButton("Undo", func() { ctrl.Undo(context.Background()) })
	redoBtn := widget.NewButton("Redo", func() { ctrl.Redo(context.Background()) })

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		toolSelect,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorSelect,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderBox,
		widget.NewSeparator(),
		undoBtn,
		redoBtn,
		layout.NewSpacer(),
	)
}
