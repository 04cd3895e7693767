package carp

import "github.com/nvandessel/carprun/internal/constants"

// SimpleParams are the run-dependent inputs of the simple tissue example.
type SimpleParams struct {
	ParFile   string
	JobID     string
	Mesh      string
	Tend      float64
	Visualize bool
}

// SimpleStimulus is the S1 stimulus of the simple example. Its bounds repeat
// x1 and never set z1; the simulator applies the last x1.
func SimpleStimulus() Stimulus {
	return Stimulus{
		Name:     constants.StimulusName,
		Type:     constants.StimulusType,
		Start:    constants.StimulusStart,
		Strength: constants.StimulusStrength,
		Duration: constants.StimulusDuration,
		Region:   constants.StimulusRegion,
		Bounds: []Coord{
			{"x0", constants.StimulusX0},
			{"x1", constants.StimulusX1},
			{"y0", constants.StimulusY0},
			{"y1", constants.StimulusY1},
			{"z0", constants.StimulusZ0},
			{"x1", constants.StimulusX1Repeat},
		},
	}
}

// Myocardium is the single conductivity region of the simple example.
func Myocardium() ConductivityRegion {
	return ConductivityRegion{
		Name: constants.RegionName,
		ID:   "1",
		GEL:  constants.GEL,
		GET:  constants.GET,
		GEN:  constants.GEN,
		GIL:  constants.GIL,
		GIT:  constants.GIT,
		GIN:  constants.GIN,
		Mult: constants.GMult,
	}
}

// ActivationLAT detects the first activation by maximum slope of the
// transmembrane voltage crossing -10 mV.
func ActivationLAT() LATDetector {
	return LATDetector{
		ID:        constants.LATName,
		All:       constants.LATAll,
		Measurand: constants.LATMeasurand,
		Mode:      constants.LATMode,
		Threshold: constants.LATThreshold,
	}
}

// Simple assembles the full command of the simple tissue example.
func Simple(p SimpleParams) Command {
	cmd := ParFile(p.ParFile).Concat(
		PhysicsRegions(IntracellularDomain(constants.RegionTag)),
		Stimuli(SimpleStimulus()),
		Command{
			Opt("-simID", Str(p.JobID)),
			Opt("-meshname", Str(p.Mesh)),
			Opt("-tend", Float(p.Tend)),
		},
		ConductivityRegions(Myocardium()),
		IonicRegions(IonicRegion{Model: constants.IonicModel, IDs: []int{constants.RegionTag}}),
		LATs(ActivationLAT()),
	)

	if p.Visualize {
		// surface and volumetric mesh for meshalyzer
		cmd = append(cmd, Opt("-gridout_i", Int(constants.GridOutBoth)))
	}

	return cmd
}
