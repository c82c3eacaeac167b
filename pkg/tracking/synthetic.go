package tracking

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Range is a half-open integer range [Min, Max) of degrees.
type Range struct {
	Min int
	Max int
}

// DefaultSyntheticRanges returns the demo-mode ranges per joint.
func DefaultSyntheticRanges() map[pose.JointID]Range {
	return map[pose.JointID]Range{
		pose.RightArm: {Min: 180, Max: 200},
		pose.LeftArm:  {Min: 160, Max: 180},
		pose.RightLeg: {Min: 170, Max: 190},
		pose.LeftLeg:  {Min: 175, Max: 195},
	}
}

// SyntheticSource generates bounded pseudo-random readings. The same seed
// always yields the same sequence.
type SyntheticSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	ranges map[pose.JointID]Range
	joints []pose.JointID
	open   bool
}

// NewSyntheticSource creates a source seeded with seed. A nil ranges map
// uses DefaultSyntheticRanges.
func NewSyntheticSource(seed uint64, ranges map[pose.JointID]Range) *SyntheticSource {
	if ranges == nil {
		ranges = DefaultSyntheticRanges()
	}
	joints := make([]pose.JointID, 0, len(ranges))
	for j := range ranges {
		joints = append(joints, j)
	}
	pose.SortJoints(joints)

	return &SyntheticSource{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ranges: ranges,
		joints: joints,
	}
}

// Open marks the source ready.
func (s *SyntheticSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

// Next draws one value per joint.
func (s *SyntheticSource) Next(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrSourceClosed
	}

	r := make(Reading, len(s.joints))
	for _, j := range s.joints {
		rg := s.ranges[j]
		span := rg.Max - rg.Min
		if span <= 0 {
			r[j] = float64(rg.Min)
			continue
		}
		r[j] = float64(rg.Min + s.rng.IntN(span))
	}
	return r, nil
}

// Close marks the source closed.
func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}
