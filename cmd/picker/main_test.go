package main

import "testing"

func TestRun_StartupFailureReturns(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RELIEF_SERVER_PORT", "0")

	if code := run(); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}
