package watcher

import (
	"context"
	"testing"
	"time"
)

func TestEventsCloseWhenWatcherShutsDown(t *testing.T) {
	fw, err := NewFileWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := fw.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// End the inotify stream underneath the event loop; downstream readers
	// must observe a closed channel instead of blocking forever
	if err := fw.watcher.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-fw.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Events channel never closed after the watcher shut down")
		}
	}
}
