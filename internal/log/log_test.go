package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf)
	defer DisableDebugModules(ModuleMaskAll)

	ModLoader.Debugf("hidden %d", 1)
	ModLoader.WithField("name", "song").Warnf("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug output is not filtered:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown 2") || !strings.Contains(buf.String(), "_mod=loader") {
		t.Fatalf("warning is missing:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "name=song") {
		t.Fatalf("fields are missing:\n%s", buf.String())
	}

	buf.Reset()
	EnableDebugModules(ModLoader.Mask())
	ModLoader.Debugf("visible")
	ModStream.Debugf("still hidden")
	if !strings.Contains(buf.String(), "visible") || strings.Contains(buf.String(), "still hidden") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestModuleByName(t *testing.T) {
	mod, ok := ModuleByName("mixer")
	if !ok || mod != ModMixer {
		t.Fatalf("ModuleByName(mixer) = %v, %v", mod, ok)
	}
	if _, ok := ModuleByName("nope"); ok {
		t.Fatalf("unknown module is found")
	}

	custom := NewModule("custom")
	if got, ok := ModuleByName("custom"); !ok || got != custom {
		t.Fatalf("custom module lookup failed")
	}
	if custom.String() != "custom" {
		t.Fatalf("custom module name: %q", custom.String())
	}
}
