package pose

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Exercise describes a practicable pose and its reference angles.
type Exercise struct {
	Key         string              `yaml:"key" json:"key"`
	Name        string              `yaml:"name" json:"name"`
	Sanskrit    string              `yaml:"sanskrit" json:"sanskrit"`
	Description string              `yaml:"description" json:"description"`
	Difficulty  string              `yaml:"difficulty" json:"difficulty"`
	Duration    string              `yaml:"duration" json:"duration"`
	Benefits    []string            `yaml:"benefits" json:"benefits"`
	Targets     map[JointID]float64 `yaml:"targets" json:"targets"`
}

// Reference builds the immutable reference pose for the exercise.
func (e Exercise) Reference() ReferencePose {
	return NewReferencePose(e.Key, e.Targets)
}

// Library is a keyed collection of exercises.
type Library struct {
	exercises map[string]Exercise
}

// DefaultLibraryKey is the exercise used when none is requested.
const DefaultLibraryKey = "vrksasana"

func builtins() []Exercise {
	return []Exercise{
		{
			Key:         "vrksasana",
			Name:        "Tree Pose",
			Sanskrit:    "Vrksasana",
			Description: "A classic standing posture that establishes strength and balance, and helps you feel centered.",
			Difficulty:  "Beginner",
			Duration:    "30-60 seconds",
			Benefits:    []string{"Balance", "Focus", "Leg Strength"},
			Targets:     map[JointID]float64{RightArm: 201, LeftArm: 162, RightLeg: 177, LeftLeg: 182},
		},
		{
			Key:         "adho_mukha_svanasana",
			Name:        "Downward Dog",
			Sanskrit:    "Adho Mukha Svanasana",
			Description: "It strengthens the core and improves circulation, while providing full-body stretch.",
			Difficulty:  "Beginner",
			Duration:    "1-3 minutes",
			Benefits:    []string{"Full Body", "Circulation", "Core Strength"},
			Targets:     map[JointID]float64{RightArm: 178, LeftArm: 182, RightLeg: 176, LeftLeg: 184},
		},
		{
			Key:         "balasana",
			Name:        "Child's Pose",
			Sanskrit:    "Balasana",
			Description: "Balasana is a restful pose that can be sequenced between more challenging asanas.",
			Difficulty:  "Beginner",
			Duration:    "1-5 minutes",
			Benefits:    []string{"Relaxation", "Hip Flexibility", "Stress Relief"},
			Targets:     map[JointID]float64{RightArm: 175, LeftArm: 185, RightLeg: 35, LeftLeg: 325},
		},
		{
			Key:         "tadasana",
			Name:        "Mountain Pose",
			Sanskrit:    "Tadasana",
			Description: "The foundation of all standing poses. It makes a resting pose, or tool to improve posture.",
			Difficulty:  "Beginner",
			Duration:    "30 seconds - 1 minute",
			Benefits:    []string{"Posture", "Grounding", "Awareness"},
			Targets:     map[JointID]float64{RightArm: 180, LeftArm: 180, RightLeg: 180, LeftLeg: 180},
		},
		{
			Key:         "trikonasana",
			Name:        "Triangle Pose",
			Sanskrit:    "Trikonasana",
			Description: "It is a quintessential standing pose that stretches and strengthens the whole body.",
			Difficulty:  "Intermediate",
			Duration:    "30 seconds each side",
			Benefits:    []string{"Side Body", "Hamstrings", "Balance"},
			Targets:     map[JointID]float64{RightArm: 180, LeftArm: 180, RightLeg: 178, LeftLeg: 182},
		},
		{
			Key:         "virabhadrasana",
			Name:        "Warrior Pose",
			Sanskrit:    "Virabhadrasana",
			Description: "It is a foundational yoga pose that balances flexibility and strength in true warrior fashion.",
			Difficulty:  "Intermediate",
			Duration:    "30-60 seconds each side",
			Benefits:    []string{"Leg Strength", "Hip Flexibility", "Confidence"},
			Targets:     map[JointID]float64{RightArm: 180, LeftArm: 180, RightLeg: 90, LeftLeg: 180},
		},
	}
}

// DefaultLibrary returns the built-in exercises.
func DefaultLibrary() *Library {
	l := &Library{exercises: make(map[string]Exercise)}
	for _, e := range builtins() {
		l.exercises[e.Key] = e
	}
	return l
}

type libraryFile struct {
	Exercises []Exercise `yaml:"exercises"`
}

// LoadLibrary reads a YAML file of exercises and merges it over the
// built-ins. Entries with a known key replace the built-in entry.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose library: %w", err)
	}
	return ParseLibrary(data)
}

// ParseLibrary decodes YAML exercises and merges them over the built-ins.
func ParseLibrary(data []byte) (*Library, error) {
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse pose library: %v", ErrConfiguration, err)
	}

	l := DefaultLibrary()
	for i, e := range f.Exercises {
		if e.Key == "" {
			return nil, fmt.Errorf("%w: exercise %d has no key", ErrConfiguration, i)
		}
		if err := e.Reference().Validate(); err != nil {
			return nil, err
		}
		l.exercises[e.Key] = e
	}
	return l, nil
}

// Get looks up an exercise by key.
func (l *Library) Get(key string) (Exercise, error) {
	e, ok := l.exercises[key]
	if !ok {
		return Exercise{}, fmt.Errorf("%w: %q", ErrUnknownExercise, key)
	}
	return e, nil
}

// Keys returns all exercise keys sorted alphabetically.
func (l *Library) Keys() []string {
	keys := make([]string, 0, len(l.exercises))
	for k := range l.exercises {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every exercise ordered by key.
func (l *Library) All() []Exercise {
	keys := l.Keys()
	out := make([]Exercise, 0, len(keys))
	for _, k := range keys {
		out = append(out, l.exercises[k])
	}
	return out
}
