package testutils

import "sync"

type MockRand struct {
	ValFloat float64
}

func (m *MockRand) Float64() float64 { return m.ValFloat }

// ScriptedRandomness replays failure decisions and perturbations in order.
// Once a script runs out it keeps answering "no failure" and 0.
type ScriptedRandomness struct {
	Mu            sync.Mutex
	Failures      []bool
	Perturbations []float64
}

func (s *ScriptedRandomness) ShouldFail() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if len(s.Failures) == 0 {
		return false
	}
	f := s.Failures[0]
	s.Failures = s.Failures[1:]
	return f
}

func (s *ScriptedRandomness) Perturbation() float64 {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if len(s.Perturbations) == 0 {
		return 0
	}
	p := s.Perturbations[0]
	s.Perturbations = s.Perturbations[1:]
	return p
}
