package pipeline

import (
	"fmt"

	"jedisim/internal/catalog"
	"jedisim/internal/services/jedi"
	"jedisim/internal/settings"
	"jedisim/internal/workspace"
)

// Action is the kind of work a Step performs.
type Action int

const (
	// ActionStage launches an external executable.
	ActionStage Action = iota
	// ActionProvision resets the output directories.
	ActionProvision
	// ActionWriteList writes the rescaled image list read by jediaverage.
	ActionWriteList
	// ActionRotate rewrites the baseline catalog and lists for the rotated case.
	ActionRotate
)

func (a Action) String() string {
	switch a {
	case ActionStage:
		return "stage"
	case ActionProvision:
		return "provision"
	case ActionWriteList:
		return "write list"
	case ActionRotate:
		return "rotate"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Step is one unit of work. State is the state the run reaches once every
// step carrying it has finished.
type Step struct {
	State  State
	Action Action
	Label  string
	Argv   []string

	layout    workspace.Layout
	listPath  string
	listLines []string
	pairs     []catalog.Pair
	from, to  string
}

// Plan returns every step of a run in execution order without running
// anything.
func (s *Sequencer) Plan() []Step {
	return append([]Step(nil), s.steps...)
}

// Stages returns only the external stage steps of the plan.
func (s *Sequencer) Stages() []Step {
	var out []Step
	for _, st := range s.steps {
		if st.Action == ActionStage {
			out = append(out, st)
		}
	}
	return out
}

type planner struct {
	ns           settings.Namespace
	client       *jedi.Client
	weights      weightSource
	settingsPath string
	psfPattern   string
	iterations   int
	writeLists   bool
}

type weightSource interface {
	Bulge(i int) float64
	Disk(i int) float64
}

func (p *planner) stage(state State, inv jedi.Invocation) Step {
	return Step{State: state, Action: ActionStage, Label: inv.Label, Argv: inv.Argv}
}

func (p *planner) require(keys ...string) ([]string, error) {
	values := make([]string, len(keys))
	for i, key := range keys {
		v, err := p.ns.Require(key)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (p *planner) preLoop() ([]Step, error) {
	v, err := p.require(settings.KeyColorInfile)
	if err != nil {
		return nil, err
	}
	state := State{Phase: PreLoopStagesDone}
	return []Step{
		p.stage(state, p.client.Color(v[0], p.weights.Bulge(0), p.weights.Disk(0))),
		p.stage(state, p.client.Catalog(p.settingsPath)),
	}, nil
}

// runLoop plans the seven stage inner loop of case c for every iteration.
func (p *planner) runLoop(c settings.Case) ([]Step, error) {
	v, err := p.require(
		settings.KeyColorInfile,
		c.Key("catalog_file"),
		c.Key("dislist_file"),
		settings.KeyNX,
		settings.KeyNY,
		settings.KeyLensesFile,
		settings.KeyPixScale,
		settings.KeyLensZ,
		c.Key("distortedlist_file"),
		c.Key("HST_image"),
		c.OutputFolderKey(),
		c.Key("convolvedlist_file"),
		c.Key("HST_convolved_image"),
		settings.KeyFinalPixScale,
		settings.KeyXTrim,
		settings.KeyYTrim,
		c.RescaledFolderKey(),
	)
	if err != nil {
		return nil, err
	}
	var (
		colorIn       = v[0]
		catalogFile   = v[1]
		dislist       = v[2]
		nx, ny        = v[3], v[4]
		lenses        = v[5]
		pixScale      = v[6]
		lensZ         = v[7]
		distortedList = v[8]
		hstImage      = v[9]
		outputFolder  = v[10]
		convolvedList = v[11]
		hstConvolved  = v[12]
		finalScale    = v[13]
		xTrim, yTrim  = v[14], v[15]
		rescaledDir   = v[16]
	)
	convolvedDir := settings.JoinDir(outputFolder, "convolved/")

	steps := make([]Step, 0, p.iterations*7)
	for i := 0; i < p.iterations; i++ {
		state := loopState(c, i)
		steps = append(steps,
			p.stage(state, p.client.Color(colorIn, p.weights.Bulge(i), p.weights.Disk(i))),
			p.stage(state, p.client.Transform(catalogFile, dislist)),
			p.stage(state, p.client.Distort(nx, ny, dislist, lenses, pixScale, lensZ)),
			p.stage(state, p.client.Paste(nx, ny, distortedList, hstImage)),
			p.stage(state, p.client.Convolve(hstImage, fmt.Sprintf(p.psfPattern, i), convolvedDir)),
			p.stage(state, p.client.Paste(nx, ny, convolvedList, hstConvolved)),
			p.stage(state, p.client.Rescale(hstConvolved, pixScale, finalScale, xTrim, yTrim, settings.JoinDir(rescaledDir, c.RescaledName(i)))),
		)
	}
	return steps, nil
}

// runPostLoop plans the average and noise stages of case c.
func (p *planner) runPostLoop(c settings.Case) ([]Step, error) {
	monoIn, monoOut := c.MonochromaticKeys()
	v, err := p.require(
		c.RescaledListKey(),
		c.Key("LSST_averaged_image"),
		c.Key("LSST_averaged_noised_image"),
		settings.KeyExpTime,
		settings.KeyNoiseMean,
		monoIn,
		monoOut,
		c.RescaledFolderKey(),
	)
	if err != nil {
		return nil, err
	}
	list, averaged, noised, expTime, noiseMean, mIn, mOut, rescaledDir := v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]

	state := postLoopState(c)
	var steps []Step
	if p.writeLists {
		lines := make([]string, p.iterations)
		for i := range lines {
			lines[i] = settings.JoinDir(rescaledDir, c.RescaledName(i))
		}
		steps = append(steps, Step{
			State:     state,
			Action:    ActionWriteList,
			Label:     "rescaled list",
			Argv:      []string{list},
			listPath:  list,
			listLines: lines,
		})
	}
	steps = append(steps,
		p.stage(state, p.client.Average(list, averaged)),
		p.stage(state, p.client.Noise(averaged, expTime, noiseMean, noised)),
		p.stage(state, p.client.Noise(mIn, expTime, noiseMean, mOut)),
	)
	return steps, nil
}

func (p *planner) rotate() (Step, error) {
	pairs, err := catalog.RotatedPairs(p.ns)
	if err != nil {
		return Step{}, err
	}
	v, err := p.require(settings.KeyOutputFolder, settings.KeyRotatedOutputFolder)
	if err != nil {
		return Step{}, err
	}
	argv := make([]string, 0, len(pairs)*2)
	for _, pair := range pairs {
		argv = append(argv, pair.In, pair.Out)
	}
	return Step{
		State:  State{Phase: RotatedCatalogsReady},
		Action: ActionRotate,
		Label:  "rotate catalogs",
		Argv:   argv,
		pairs:  pairs,
		from:   v[0],
		to:     v[1],
	}, nil
}

func buildPlan(p *planner, layout workspace.Layout, rotated bool) ([]Step, error) {
	steps := []Step{{
		State:  State{Phase: DirectoriesReady},
		Action: ActionProvision,
		Label:  "provision directories",
		Argv:   append([]string(nil), layout.Reset...),
		layout: layout,
	}}

	pre, err := p.preLoop()
	if err != nil {
		return nil, err
	}
	steps = append(steps, pre...)

	cases := []settings.Case{settings.Baseline}
	if rotated {
		cases = append(cases, settings.Rotated)
	}
	for _, c := range cases {
		if c == settings.Rotated {
			rot, err := p.rotate()
			if err != nil {
				return nil, err
			}
			steps = append(steps, rot)
		}
		loop, err := p.runLoop(c)
		if err != nil {
			return nil, err
		}
		post, err := p.runPostLoop(c)
		if err != nil {
			return nil, err
		}
		steps = append(steps, loop...)
		steps = append(steps, post...)
	}
	return steps, nil
}

// StepsForCase keeps the loop and post-loop steps of case c. The rotated case
// also keeps the catalog rotation that feeds its loop.
func StepsForCase(steps []Step, c settings.Case) []Step {
	var out []Step
	for _, st := range steps {
		switch st.State.Phase {
		case LoopIteration, PostLoopStagesDone:
			if st.State.Case == c {
				out = append(out, st)
			}
		case RotatedCatalogsReady:
			if c == settings.Rotated {
				out = append(out, st)
			}
		}
	}
	return out
}
