package ui

import (
	"context"
	"log"
	"math"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"CanvasBoard/internal/board"
	"CanvasBoard/internal/element"
	"CanvasBoard/internal/export"
	"CanvasBoard/internal/render"
)

// exportPNG rasterizes the collection into an image sized to fit it.
func exportPNG(path string, els []element.Element) error {
	w, h := 1024.0, 768.0
	for _, e := range els {
		w = math.Max(w, math.Max(e.X1, e.X2)+20)
		h = math.Max(h, math.Max(e.Y1, e.Y2)+20)
		for _, p := range e.Points {
			w = math.Max(w, p.X+20)
			h = math.Max(h, p.Y+20)
		}
	}
	r, err := render.NewRaster(int(w), int(h))
	if err != nil {
		return err
	}
	render.Draw(r, els)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.EncodePNG(f)
}

// RunApp assembles the window and blocks until it closes.
func RunApp(ctrl *board.Controller, canvasID string) {
	myApp := app.New()
	myWindow := myApp.NewWindow("CanvasBoard")
	myWindow.Resize(fyne.NewSize(1024, 768))

	boardWidget := NewBoardWidget(ctrl)
	toolbar := NewToolbar(ctrl)

	banner := widget.NewLabel("")
	ctrl.OnNotice = func(text string) {
		fyne.Do(func() { banner.SetText(text) })
	}
	ctrl.OnDenied = func(message string) {
		fyne.Do(func() {
			dialog.ShowInformation("Access denied", message, myWindow)
		})
	}

	// The text tool opens an entry dialog; closing it commits the
	// string into the pending text element.
	boardWidget.OnTextAt = func(x, y float64) {
		fyne.Do(func() {
			entry := widget.NewEntry()
			d := dialog.NewForm("Add text", "OK", "Cancel",
				[]*widget.FormItem{widget.NewFormItem("Text", entry)},
				func(ok bool) {
					if !ok {
						ctrl.CommitText(context.Background(), "")
						return
					}
					ctrl.CommitText(context.Background(), entry.Text)
				}, myWindow)
			d.Show()
		})
	}

	exportBtn := widget.NewButton("Export PDF", func() {
		if err := export.PDF("canvas.pdf", ctrl.Elements()); err != nil {
			log.Printf("[ui] export pdf: %v", err)
			banner.SetText("Export failed")
			return
		}
		banner.SetText("Exported canvas.pdf")
	})
	exportPNGBtn := widget.NewButton("Export PNG", func() {
		if err := exportPNG("canvas.png", ctrl.Elements()); err != nil {
			log.Printf("[ui] export png: %v", err)
			banner.SetText("Export failed")
			return
		}
		banner.SetText("Exported canvas.png")
	})
	shareEntry := widget.NewEntry()
	shareEntry.SetPlaceHolder("email to share with")
	shareBtn := widget.NewButton("Share", func() {
		if shareEntry.Text != "" {
			go ctrl.ShareCanvas(context.Background(), shareEntry.Text)
		}
	})
	bottom := container.NewBorder(nil, nil, nil, container.NewHBox(shareEntry, shareBtn, exportBtn, exportPNGBtn), banner)

	myWindow.SetContent(container.NewBorder(toolbar, bottom, nil, nil, boardWidget))

	go ctrl.SetCanvas(context.Background(), canvasID)
	myWindow.ShowAndRun()
}
