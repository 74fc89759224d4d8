// Package dashboard is the desktop window of the launcher: a region picker,
// a download root and two actions, plus the list of installed regions.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"github.com/RTIInternational/hefs-fews-hub/fetch"
	"github.com/RTIInternational/hefs-fews-hub/installer"
	"github.com/RTIInternational/hefs-fews-hub/logger"
	"github.com/RTIInternational/hefs-fews-hub/model"
)

const (
	Title = "HEFS-FEWS Dashboard"

	WindowWidth  = 640
	WindowHeight = 480
)

// Actions is what the window needs from the installer
type Actions interface {
	InstallConfiguration(ctx context.Context, region model.Region, root string) (*model.InstallRecord, error)
	DownloadHistoricalData(ctx context.Context, region model.Region, root string) (*fetch.Stats, error)
	Installed() ([]model.InstallRecord, error)
	SetHooks(h installer.Hooks)
}

type Dashboard struct {
	ctx      context.Context
	window   fyne.Window
	actions  Actions
	settings *Settings
	logger   logger.Logger

	regionSelect *widget.Select
	rootEntry    *widget.Entry
	installBtn   *widget.Button
	dataBtn      *widget.Button
	progress     *widget.ProgressBarInfinite
	status       *widget.Label
	installList  *widget.List

	mu        sync.Mutex
	installed []model.InstallRecord

	// running tracks background actions
	running sync.WaitGroup
}

// New builds the dashboard into window. Actions started from the window run
// under ctx.
func New(ctx context.Context, app fyne.App, window fyne.Window, actions Actions, defaultRoot string, log logger.Logger) *Dashboard {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	d := &Dashboard{
		ctx:      ctx,
		window:   window,
		actions:  actions,
		settings: NewSettings(app, defaultRoot),
		logger:   log,
	}

	actions.SetHooks(installer.Hooks{
		OnBusy: d.setBusy,
		OnStep: d.setStatus,
	})

	d.build()
	window.SetTitle(Title)
	window.SetContent(d.content())
	d.refreshInstalled()
	return d
}

func (d *Dashboard) build() {
	options := make([]string, 0, len(model.Regions()))
	for _, r := range model.Regions() {
		options = append(options, r.String())
	}
	d.regionSelect = widget.NewSelect(options, func(s string) {
		if r, err := model.ParseRegion(s); err == nil {
			d.settings.SetRegion(r)
		}
	})
	d.regionSelect.SetSelected(d.settings.Region().String())

	d.rootEntry = widget.NewEntry()
	d.rootEntry.SetText(d.settings.DownloadRoot())
	d.rootEntry.SetPlaceHolder("Download directory")

	d.installBtn = widget.NewButton("Download Configs", d.onInstall)
	d.installBtn.Importance = widget.HighImportance
	d.dataBtn = widget.NewButton("Download Data", d.onDownloadData)

	d.progress = widget.NewProgressBarInfinite()
	d.progress.Hide()

	d.status = widget.NewLabel("")
	d.status.Wrapping = fyne.TextWrapWord

	d.installList = widget.NewList(
		func() int {
			d.mu.Lock()
			defer d.mu.Unlock()
			return len(d.installed)
		},
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			d.mu.Lock()
			defer d.mu.Unlock()
			if id < len(d.installed) {
				obj.(*widget.Label).SetText(describe(d.installed[id]))
			}
		},
	)
}

func (d *Dashboard) content() fyne.CanvasObject {
	form := widget.NewForm(
		widget.NewFormItem("RFC", d.regionSelect),
		widget.NewFormItem("Directory", d.rootEntry),
	)
	buttons := container.NewGridWithColumns(2, d.installBtn, d.dataBtn)
	top := container.NewVBox(form, buttons, d.progress, d.status, widget.NewSeparator(), widget.NewLabel("Installed"))

	return container.NewBorder(top, nil, nil, nil, d.installList)
}

func describe(rec model.InstallRecord) string {
	return fmt.Sprintf("%s  %s  (%d files, %s, %s)",
		rec.Region, rec.ConfigDir, rec.Files, humanize.Bytes(uint64(rec.Bytes)), humanize.Time(rec.InstalledAt))
}

// selection reads and remembers the current form values
func (d *Dashboard) selection() (model.Region, string, error) {
	region, err := model.ParseRegion(d.regionSelect.Selected)
	if err != nil {
		return "", "", err
	}
	root := strings.TrimSpace(d.rootEntry.Text)
	d.settings.SetRegion(region)
	d.settings.SetDownloadRoot(root)
	return region, root, nil
}

func (d *Dashboard) onInstall() {
	region, root, err := d.selection()
	if err != nil {
		d.showError(err)
		return
	}

	d.run(func() {
		rec, err := d.actions.InstallConfiguration(d.ctx, region, root)
		if err != nil {
			d.logger.Error("Install of %s failed: %v", region, err)
			d.showError(err)
			return
		}
		d.setStatus(fmt.Sprintf("%s installed. Start FEWS from the desktop shortcut or %s", region, rec.ScriptPath))
		d.refreshInstalled()
	})
}

func (d *Dashboard) onDownloadData() {
	region, root, err := d.selection()
	if err != nil {
		d.showError(err)
		return
	}

	d.run(func() {
		stats, err := d.actions.DownloadHistoricalData(d.ctx, region, root)
		if err != nil {
			d.logger.Error("Historical data download for %s failed: %v", region, err)
			d.showError(err)
			return
		}
		d.setStatus(fmt.Sprintf("%s historical data downloaded (%s)", region, stats))
	})
}

// run executes fn off the UI goroutine with the action buttons disabled
func (d *Dashboard) run(fn func()) {
	d.installBtn.Disable()
	d.dataBtn.Disable()

	d.running.Add(1)
	go func() {
		defer d.running.Done()
		defer fyne.Do(func() {
			d.installBtn.Enable()
			d.dataBtn.Enable()
		})
		fn()
	}()
}

// Wait blocks until background actions have finished
func (d *Dashboard) Wait() {
	d.running.Wait()
}

func (d *Dashboard) setBusy(busy bool) {
	fyne.Do(func() {
		if busy {
			d.progress.Show()
		} else {
			d.progress.Hide()
		}
	})
}

func (d *Dashboard) setStatus(msg string) {
	fyne.Do(func() { d.status.SetText(msg) })
}

func (d *Dashboard) showError(err error) {
	fyne.Do(func() {
		d.status.SetText("Error: " + err.Error())
		dialog.ShowError(err, d.window)
	})
}

func (d *Dashboard) refreshInstalled() {
	recs, err := d.actions.Installed()
	if err != nil {
		d.logger.Warn("Failed to read installed regions: %v", err)
		return
	}
	d.mu.Lock()
	d.installed = recs
	d.mu.Unlock()
	fyne.Do(d.installList.Refresh)
}
