// SPDX-License-Identifier: Unlicense OR MIT

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func capture(t *testing.T, level logrus.Level) *bytes.Buffer {
	t.Helper()
	prev := Get()
	t.Cleanup(func() { Set(prev) })
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(level)
	Set(l)
	return &buf
}

func TestLevels(t *testing.T) {
	buf := capture(t, logrus.InfoLevel)
	Debugf("hidden %d", 1)
	Infof("shown %d", 2)
	Errorf("DRM_IOCTL_VIRTGPU_WAIT failed with %v", "EBUSY")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level:\n%s", out)
	}
	for _, want := range []string{"shown 2", "failed with EBUSY", "level=error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWithField(t *testing.T) {
	buf := capture(t, logrus.DebugLevel)
	WithField("handle", 7).Warn("slow wait")
	if out := buf.String(); !strings.Contains(out, "handle=7") {
		t.Errorf("output missing field:\n%s", out)
	}
}

func TestInitFile(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })
	path := filepath.Join(t.TempDir(), "logs", "virtgbm.log")
	if err := Init("bogus", path, false); err != nil {
		t.Fatal(err)
	}
	if lvl := Get().GetLevel(); lvl != logrus.InfoLevel {
		t.Errorf("level = %v, want info for an unknown level", lvl)
	}
	Warnf("written to %s", "file")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "written to file") {
		t.Errorf("log file = %q", b)
	}
}
