package interrupt

import (
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestMonitorReaderCommands(t *testing.T) {
	im := NewInterruptManager(nil)
	done := make(chan struct{})
	go func() {
		im.MonitorReader(strings.NewReader("\n"))
		close(done)
	}()

	waitFor(t, im.CaptureChan(), "capture")
	waitFor(t, im.QuitChan(), "quit on EOF")
	<-done
}

func TestMonitorReaderQuit(t *testing.T) {
	im := NewInterruptManager(nil)
	im.MonitorReader(strings.NewReader("hello\nq\n\n"))

	waitFor(t, im.QuitChan(), "quit")
	select {
	case <-im.CaptureChan():
		t.Error("lines after q must be ignored")
	default:
	}
}
