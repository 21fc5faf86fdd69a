package testutils_test

import (
	"testing"

	"github.com/castscript/cast/testutils"
)

func TestRunSource(t *testing.T) {
	out, _, err := testutils.RunSource("on main\n  put 1 + 1\nend\n")
	if err != nil {
		t.Fatalf("RunSource error: %v", err)
	}
	if out != "2\n" {
		t.Errorf("RunSource output %q, want %q", out, "2\n")
	}
}

func TestRunSourceCompileError(t *testing.T) {
	_, _, err := testutils.RunSource("on main\n  put oops\nend\n")
	if err == nil {
		t.Error("expected an error for an undeclared identifier")
	}
}
