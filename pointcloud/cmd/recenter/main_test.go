package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/recenter/logging"
)

const tetra = `ply
format ascii 1.0
element vertex 4
property double x
property double y
property double z
end_header
0 0 0
2 0 0
0 2 0
0 0 2
`

func TestMain(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plot.ply")
	test.That(t, os.WriteFile(in, []byte(tetra), 0o600), test.ShouldBeNil)
	out := filepath.Join(dir, "out.ply")

	for _, tc := range []struct {
		Name string
		Args []string
		Err  string
	}{
		{"no input", []string{"recenter"}, "flag required but not specified"},
		{"unknown flag", []string{"recenter", "-nope", in}, "flag provided but not defined"},
		{"missing file", []string{"recenter", "-output", out, filepath.Join(dir, "gone.ply")}, "no such file"},
		{"missing element", []string{"recenter", "-element", "point", "-output", out, in}, `no "point" element`},
		{"ok", []string{"recenter", "-debug", "-output", out, in}, ""},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			logger, logs := logging.NewObservedTestLogger(t)
			err := mainWithArgs(context.Background(), tc.Args, logger)
			if tc.Err == "" {
				test.That(t, err, test.ShouldBeNil)
				test.That(t, logs.FilterMessage("Output saved to "+out).Len(), test.ShouldEqual, 1)
				test.That(t, logs.FilterLevelExact(zapcore.InfoLevel).Len(), test.ShouldEqual, 1)
				return
			}
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.Err)
		})
	}

	got, err := os.ReadFile(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(got), test.ShouldEqual, `ply
format ascii 1.0
element vertex 4
property double x
property double y
property double z
end_header
-1 -1 -1
1 -1 -1
-1 1 -1
-1 -1 1
`)
}
