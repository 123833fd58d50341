package schema

import (
	"math"

	"github.com/ryogrid/SamehadaDict/common"
)

type SequenceDef struct {
	ID    uint32
	UID   uint32
	Name  string
	Step  int64
	Min   int64
	Max   int64
	Start int64
	Cache int64
	Cycle bool
}

// NewSequenceDef fills the defaults of an ascending sequence.
func NewSequenceDef(id uint32, uid uint32, name string) *SequenceDef {
	return &SequenceDef{ID: id, UID: uid, Name: name, Step: 1, Min: 1, Max: math.MaxInt64, Start: 1}
}

func (d *SequenceDef) Validate() error {
	if d.Step == 0 {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "step option must be non-zero")
	}
	if d.Min > d.Max {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "max must be greater than or equal to min")
	}
	if d.Start < d.Min || d.Start > d.Max {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "start must be between min and max")
	}
	return nil
}

// Sequence is a cached sequence with its current value. The value is
// mirrored in _sequence_data.
type Sequence struct {
	Def       *SequenceDef
	Value     int64
	IsStarted bool
}

func NewSequence(def *SequenceDef) *Sequence {
	return &Sequence{Def: def}
}

// Peek computes the next value without consuming it.
func (s *Sequence) Peek() (int64, error) {
	def := s.Def
	if !s.IsStarted {
		return def.Start, nil
	}
	value := s.Value
	if def.Step > 0 {
		if value < def.Min {
			return def.Min, nil
		}
		if value >= 0 && def.Step > math.MaxInt64-value {
			return s.overflow()
		}
		value += def.Step
		if value > def.Max {
			return s.overflow()
		}
	} else {
		if value > def.Max {
			return def.Max, nil
		}
		if value < 0 && def.Step < math.MinInt64-value {
			return s.overflow()
		}
		value += def.Step
		if value < def.Min {
			return s.overflow()
		}
	}
	return value, nil
}

func (s *Sequence) overflow() (int64, error) {
	if !s.Def.Cycle {
		return 0, common.NewClientError(common.ER_SEQUENCE_OVERFLOW, s.Def.Name)
	}
	if s.Def.Step > 0 {
		return s.Def.Min, nil
	}
	return s.Def.Max, nil
}

func (s *Sequence) Set(value int64) {
	s.Value = value
	s.IsStarted = true
}

func (s *Sequence) Reset() {
	s.Value = 0
	s.IsStarted = false
}

// Follows reports whether an explicitly inserted value must move the
// sequence forward.
func (s *Sequence) Follows(value int64) bool {
	if !s.IsStarted {
		return true
	}
	if s.Def.Step > 0 {
		return value > s.Value
	}
	return value < s.Value
}
