package ml

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the model artifact when the file is rewritten and hands
// the fresh classifier to apply. A reload that fails leaves the previous
// classifier serving.
type Watcher struct {
	modelType string
	path      string
	fw        *fsnotify.Watcher
	apply     func(Classifier)
	logger    *zap.Logger
	done      chan struct{}
}

func NewWatcher(modelType, path string, apply func(Classifier), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors and deploy scripts replace files by
	// rename, which drops a watch placed on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		modelType: modelType,
		path:      path,
		fw:        fw,
		apply:     apply,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			model, err := LoadModel(w.modelType, w.path)
			if err != nil {
				w.logger.Warn("model reload failed, keeping previous artifact",
					zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.apply(model)
			w.logger.Info("model artifact reloaded",
				zap.String("path", w.path), zap.String("version", model.Version()))
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) Stop() error {
	err := w.fw.Close()
	<-w.done
	return err
}
