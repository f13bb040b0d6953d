package bootstrap

import (
	"context"
	"strings"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"ambient-reader/internal/storage"
)

var bookDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "EPUB Files",
		Pattern:     "*.epub",
	},
}

var mediaDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Images",
		Pattern:     "*.jpg;*.jpeg;*.png;*.gif;*.webp;*.bmp",
	},
	{
		DisplayName: "Videos",
		Pattern:     "*.mp4;*.webm;*.mov;*.avi;*.mkv",
	},
	{
		DisplayName: "All Media",
		Pattern:     "*.jpg;*.jpeg;*.png;*.gif;*.webp;*.bmp;*.mp4;*.webm;*.mov;*.avi;*.mkv",
	},
}

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio Files",
		Pattern:     "*.mp3;*.wav;*.ogg;*.flac;*.aac;*.m4a;*.wma",
	},
}

// wailsDialogs opens native file pickers through the Wails runtime.
type wailsDialogs struct {
	runtimeContext func() (context.Context, error)
	openFile       func(context.Context, wailsruntime.OpenDialogOptions) (string, error)
}

func newWailsDialogs(runtimeContext func() (context.Context, error)) *wailsDialogs {
	return &wailsDialogs{
		runtimeContext: runtimeContext,
		openFile:       wailsruntime.OpenFileDialog,
	}
}

func (d *wailsDialogs) PickBook(ctx context.Context) (string, error) {
	return d.pick(ctx, "Open EPUB", bookDialogFilter)
}

func (d *wailsDialogs) PickMedia(ctx context.Context) (string, error) {
	return d.pick(ctx, "Select background", mediaDialogFilter)
}

func (d *wailsDialogs) PickAudio(ctx context.Context) (string, error) {
	return d.pick(ctx, "Select ambient audio", audioDialogFilter)
}

// pick shows one dialog. A dismissed dialog is storage.ErrNoSelection.
func (d *wailsDialogs) pick(ctx context.Context, title string, filters []wailsruntime.FileFilter) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rctx, err := d.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := d.openFile(rctx, wailsruntime.OpenDialogOptions{
		Title:   title,
		Filters: filters,
	})
	if err != nil {
		return "", err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return "", storage.ErrNoSelection
	}
	return path, nil
}
