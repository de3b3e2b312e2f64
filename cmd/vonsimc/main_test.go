package main

import "testing"

func TestFilepathExt(t *testing.T) {
	cases := map[string]string{
		"prog.asm":     ".asm",
		"prog.dulf":    ".dulf",
		"noext":        "",
		"dir/prog.asm": ".asm",
	}
	for in, want := range cases {
		if got := filepathExt(in); got != want {
			t.Errorf("filepathExt(%q) = %q, want %q", in, got, want)
		}
	}
}
