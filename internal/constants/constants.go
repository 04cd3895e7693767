// Package constants provides named constants used throughout the carprun codebase.
// This centralizes the domain values of the simple tissue example.
package constants

// Simulation defaults exposed on the command line.
const (
	// DefaultTend is the default simulation duration in ms.
	// Run longer to also see repolarization.
	DefaultTend = 20.0

	// DefaultNP is the default number of solver processes.
	DefaultNP = 1

	// DefaultFlavor is the default solver backend.
	DefaultFlavor = "petsc"

	// ExampleLabel is the fixed label used in job directory names.
	ExampleLabel = "simple"
)

// Stimulus protocol of the S1 stimulus.
const (
	StimulusName     = "S1"
	StimulusType     = 1
	StimulusStart    = 0
	StimulusDuration = 1
	// StimulusStrength is in the simulator's current density unit.
	StimulusStrength = -1500
	StimulusRegion   = 0
)

// Stimulus bounding box (mm). StimulusX1Repeat is the value of the second
// x1 assignment in the stimulus block; the simulator keeps the last one.
const (
	StimulusX0       = -39.94
	StimulusX1       = 71.54
	StimulusY0       = -84.36
	StimulusY1       = 13.15
	StimulusZ0       = -51.74
	StimulusX1Repeat = 48.13
)

// Monodomain conductivities (S/m) of the myocardium region.
// The monodomain conductivity is half the harmonic mean of the
// intracellular and extracellular values.
const (
	RegionName = "myocardium"
	RegionTag  = 1

	// Extracellular longitudinal, transverse and sheet conductivities.
	GEL = 0.625
	GET = 0.236
	GEN = 0.236

	// Intracellular longitudinal, transverse and sheet conductivities.
	GIL = 0.174
	GIT = 0.019
	GIN = 0.019

	// GMult scales all conductivities to reduce conduction velocity.
	GMult = 0.5
)

// IonicModel is the cellular model assigned to the myocardium tag.
const IonicModel = "Courtemanche"

// Local activation time detection.
const (
	LATName = "activation"
	// LATAll 0 detects the first activation only.
	LATAll = 0
	// LATMeasurand 0 uses the transmembrane voltage.
	LATMeasurand = 0
	// LATMode 0 takes the maximum slope.
	LATMode = 0
	// LATThreshold is in mV.
	LATThreshold = -10
)

// Output and visualization.
const (
	// GridOutBoth writes both surface and volumetric mesh output.
	GridOutBoth = 3

	// TransmembraneDataFile is the compressed transmembrane voltage output.
	TransmembraneDataFile = "vm.igb.gz"

	// GeometrySuffix is appended to the mesh basename for the intracellular grid.
	GeometrySuffix = "_i"

	// ParFile and ViewFile are the example's simulation files.
	ParFile  = "simple.par"
	ViewFile = "simple.mshz"

	// EventsFile is the JSONL event log written inside the job directory.
	EventsFile = "carprun-events.jsonl"
)

// MCP tool names.
const (
	CommandTool = "carprun_command"
	HistoryTool = "carprun_history"
)
