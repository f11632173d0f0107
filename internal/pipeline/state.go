package pipeline

import (
	"fmt"

	"jedisim/internal/settings"
)

// Phase is a position in the run state machine.
type Phase int

const (
	Init Phase = iota
	DirectoriesReady
	PreLoopStagesDone
	LoopIteration
	PostLoopStagesDone
	RotatedCatalogsReady
	Complete
)

func (p Phase) String() string {
	switch p {
	case Init:
		return "Init"
	case DirectoriesReady:
		return "DirectoriesReady"
	case PreLoopStagesDone:
		return "PreLoopStagesDone"
	case LoopIteration:
		return "LoopIteration"
	case PostLoopStagesDone:
		return "PostLoopStagesDone"
	case RotatedCatalogsReady:
		return "RotatedCatalogsReady"
	case Complete:
		return "Complete"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is a Phase qualified by case and, for loop states, the iteration.
type State struct {
	Phase     Phase
	Case      settings.Case
	Iteration int
}

// StateInit is the starting state of every run.
var StateInit = State{Phase: Init}

func (s State) String() string {
	switch s.Phase {
	case LoopIteration:
		if s.Case == settings.Rotated {
			return fmt.Sprintf("LoopIteration90(%d)", s.Iteration)
		}
		return fmt.Sprintf("LoopIteration(%d)", s.Iteration)
	case PostLoopStagesDone:
		return fmt.Sprintf("PostLoopStagesDone(%s)", s.Case)
	default:
		return s.Phase.String()
	}
}

func loopState(c settings.Case, i int) State {
	return State{Phase: LoopIteration, Case: c, Iteration: i}
}

func postLoopState(c settings.Case) State {
	return State{Phase: PostLoopStagesDone, Case: c}
}
