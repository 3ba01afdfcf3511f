package engine

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// shaderWatcher notices edits to the shader files. Directories are watched
// rather than files so editors that replace a file on save are seen.
type shaderWatcher struct {
	w       *fsnotify.Watcher
	files   map[string]bool
	changed chan struct{}
	done    chan struct{}
}

func watchShaders(paths ...string) (*shaderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader watch: %w", err)
	}
	sw := &shaderWatcher{
		w:       w,
		files:   make(map[string]bool),
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("shader watch %s: %w", p, err)
		}
		sw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("shader watch %s: %w", dir, err)
		}
	}
	go sw.loop()
	log.Printf("Watching %d shader files", len(sw.files))
	return sw, nil
}

func (sw *shaderWatcher) loop() {
	defer close(sw.done)
	for {
		select {
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !sw.files[abs] {
				continue
			}
			sw.notify()
		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			log.Printf("Shader watch error: %v", err)
		}
	}
}

func (sw *shaderWatcher) notify() {
	select {
	case sw.changed <- struct{}{}:
	default:
	}
}

// Changed reports, once, whether a watched file changed since the last call.
func (sw *shaderWatcher) Changed() bool {
	select {
	case <-sw.changed:
		return true
	default:
		return false
	}
}

func (sw *shaderWatcher) Close() {
	sw.w.Close()
	<-sw.done
}
