package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestBarWritesProgress(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 2, "align")

	bar.Describe("a.png")
	bar.Add(1)
	bar.Describe("b.png")
	bar.Add(1)
	bar.Finish()

	out := buf.String()
	if !strings.Contains(out, "2/2") {
		t.Errorf("expected final count in output, got %q", out)
	}
}

func TestNopSatisfiesReporter(t *testing.T) {
	var r Reporter = Nop{}
	r.Describe("x")
	r.Add(1)
	r.Finish()
}
