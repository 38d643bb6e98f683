package cmdline_test

import (
	"testing"

	"github.com/paraproc/paraproc/cmdline"

	"github.com/stretchr/testify/require"
)

func TestExecForm(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		given    cmdline.Command
		then     []string
	}{
		{
			"text is tokenized",
			cmdline.Text("echo hello world"),
			[]string{"echo", "hello", "world"},
		},
		{
			"quoted substrings survive as one token",
			cmdline.Text(`grep "two words" file.txt`),
			[]string{"grep", "two words", "file.txt"},
		},
		{
			"args pass through unchanged",
			cmdline.Args("ls", "-la", "dir with space"),
			[]string{"ls", "-la", "dir with space"},
		},
		{
			"shell text wraps in sh -c",
			cmdline.Text("echo a; echo b").Shell(),
			[]string{"/bin/sh", "-c", "echo a; echo b"},
		},
		{
			"shell args are joined",
			cmdline.Args("echo", "a", "b").Shell(),
			[]string{"/bin/sh", "-c", "echo a b"},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			argv, err := tt.given.ExecForm()
			require.NoError(t, err)
			require.Equal(t, tt.then, argv)
		})
	}
}

func TestExecFormDeterministic(t *testing.T) {
	t.Parallel()

	cmd := cmdline.Text(`convert -resize "50%" in.png  out.png`)
	first, err := cmd.ExecForm()
	require.NoError(t, err)
	second, err := cmd.ExecForm()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		given    cmdline.Command
		then     string
	}{
		{"collapses whitespace", cmdline.Text("echo   hello\tworld"), "echo hello world"},
		{"args joined with spaces", cmdline.Args("echo", "hello"), "echo hello"},
		{"unterminated quote falls back to raw text", cmdline.Text(`echo "oops`), `echo "oops`},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.then, tt.given.Display())
		})
	}
}

// The display path round-trips: tokenizing an already displayed command
// yields the same token sequence.
func TestDisplayRoundTrip(t *testing.T) {
	t.Parallel()

	cmd := cmdline.Text("ls   -la   /tmp")
	argv, err := cmd.ExecForm()
	require.NoError(t, err)

	again, err := cmdline.Text(cmd.Display()).ExecForm()
	require.NoError(t, err)
	require.Equal(t, argv, again)
}
