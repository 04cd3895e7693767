package constants

// Overwrite represents how an existing job directory is treated.
type Overwrite string

const (
	// OverwriteKeep runs into the existing directory, overwriting outputs.
	OverwriteKeep Overwrite = "overwrite"

	// OverwriteDelete removes the existing directory before running.
	OverwriteDelete Overwrite = "delete"

	// OverwriteError refuses to run when the directory exists.
	OverwriteError Overwrite = "error"
)

// Valid returns true if the behaviour is a recognized value.
func (o Overwrite) Valid() bool {
	switch o {
	case OverwriteKeep, OverwriteDelete, OverwriteError:
		return true
	}
	return false
}

// String returns the string representation of the behaviour.
func (o Overwrite) String() string {
	return string(o)
}

// Flavors lists the solver backends the simulator can be built with.
var Flavors = []string{"petsc", "pt", "boomeramg", "ginkgo", "direct"}

// ValidFlavor returns true if flavor is one of Flavors.
func ValidFlavor(flavor string) bool {
	for _, f := range Flavors {
		if f == flavor {
			return true
		}
	}
	return false
}
