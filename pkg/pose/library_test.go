package pose

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary(t *testing.T) {
	lib := DefaultLibrary()

	assert.Len(t, lib.Keys(), 6)

	tree, err := lib.Get(DefaultLibraryKey)
	require.NoError(t, err)
	assert.Equal(t, "Tree Pose", tree.Name)

	ref := tree.Reference()
	require.NoError(t, ref.Validate())
	for joint, want := range map[JointID]float64{RightArm: 201, LeftArm: 162, RightLeg: 177, LeftLeg: 182} {
		got, ok := ref.Target(joint)
		assert.True(t, ok, joint)
		assert.Equal(t, want, got, joint)
	}

	_, err = lib.Get("headstand")
	assert.True(t, errors.Is(err, ErrUnknownExercise))
}

func TestLoadLibrary_MergesOverBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poses.yaml")
	data := []byte(`
exercises:
  - key: vrksasana
    name: Tree Pose (custom)
    targets:
      right_arm: 190
      left_arm: 170
  - key: garudasana
    name: Eagle Pose
    sanskrit: Garudasana
    difficulty: Advanced
    targets:
      right_arm: 45
      left_arm: 315
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	lib, err := LoadLibrary(path)
	require.NoError(t, err)

	assert.Len(t, lib.Keys(), 7)

	tree, err := lib.Get("vrksasana")
	require.NoError(t, err)
	assert.Equal(t, "Tree Pose (custom)", tree.Name)
	assert.Equal(t, 2, tree.Reference().Len())

	eagle, err := lib.Get("garudasana")
	require.NoError(t, err)
	assert.Equal(t, "Advanced", eagle.Difficulty)
}

func TestParseLibrary_Rejects(t *testing.T) {
	tests := map[string]string{
		"no key":       "exercises:\n  - name: x\n    targets: {right_arm: 1}\n",
		"no targets":   "exercises:\n  - key: x\n",
		"invalid yaml": "exercises: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLibrary([]byte(src))
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
