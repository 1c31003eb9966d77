package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/binzume/mmobj/internal/logger"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Editors often write a file in several steps. Events closer than this
// trigger a single export.
const watchDelay = 200 * time.Millisecond

// watchInput calls fn whenever path changes until ctx is done. The parent
// directory is watched so that replaced files are noticed too.
func watchInput(ctx context.Context, path string, fn func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("watching", zap.String("path", abs))

	var timer <-chan time.Time
	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if name, _ := filepath.Abs(e.Name); name != abs {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				timer = time.After(watchDelay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-timer:
			timer = nil
			if err := fn(); err != nil {
				logger.Error("export failed", zap.Error(err))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
