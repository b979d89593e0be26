package logger

import "testing"

func TestInit(t *testing.T) {
	Init()
	if Log == nil {
		t.Fatal("Init should set the global logger")
	}
	if Log.Desugar().Name() != "guesswho" {
		t.Errorf("unexpected logger name %q", Log.Desugar().Name())
	}
}
