package hook_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torc-dev/torc/internal/collaborator/hook"
	"github.com/torc-dev/torc/internal/model"
)

func TestTargetExecute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook executables are shell scripts")
	}

	const taskID = "01JTASK000000000000000001"

	tests := map[string]struct {
		script  string
		noHook  bool
		expErr  error
		anyErr  bool
		expArgs string
	}{
		"A hook should run with the task ID as argument": {
			script:  "#!/bin/sh\necho \"$1 $TORC_COMMAND\" > \"$(dirname \"$0\")/args\"\n",
			expArgs: taskID + " open-pr\n",
		},

		"A missing hook should fail as not found": {
			noHook: true,
			expErr: model.ErrNotFound,
		},

		"A failing hook should surface its output": {
			script: "#!/bin/sh\necho boom\nexit 1\n",
			anyErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()

			if !tt.noHook {
				err := os.WriteFile(filepath.Join(dir, "open-pr"), []byte(tt.script), 0755)
				require.NoError(t, err)
			}

			target, err := hook.NewTarget(hook.TargetConfig{HooksDir: dir})
			require.NoError(t, err)

			err = target.Execute(context.Background(), model.CommandOpenPR, taskID)

			switch {
			case tt.expErr != nil:
				assert.ErrorIs(t, err, tt.expErr)
			case tt.anyErr:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "boom")
			default:
				require.NoError(t, err)
				got, err := os.ReadFile(filepath.Join(dir, "args"))
				require.NoError(t, err)
				assert.Equal(t, tt.expArgs, string(got))
			}
		})
	}
}

func TestNewTargetRequiresDir(t *testing.T) {
	_, err := hook.NewTarget(hook.TargetConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hooks dir is required")
}
