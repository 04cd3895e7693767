package carp

import "fmt"

// PhysicsRegion attaches a physics type to a set of mesh tags.
type PhysicsRegion struct {
	Name string
	// Type is the simulator's physics type; 0 is intracellular electrics.
	Type int
	IDs  []int
}

// IntracellularDomain returns the intracellular physics region for tags.
func IntracellularDomain(tags ...int) PhysicsRegion {
	return PhysicsRegion{Name: "Intracellular domain", Type: 0, IDs: tags}
}

// Options renders the region as entry index of the physics region list.
func (r PhysicsRegion) Options(index int) Command {
	p := fmt.Sprintf("-phys_region[%d]", index)
	c := Command{
		Opt(p+".name", Str(r.Name)),
		Opt(p+".ptype", Int(int64(r.Type))),
		Opt(p+".num_IDs", Int(int64(len(r.IDs)))),
	}
	for i, id := range r.IDs {
		c = append(c, Opt(fmt.Sprintf("%s.ID[%d]", p, i), Int(int64(id))))
	}
	return c
}

// PhysicsRegions renders a counted list of physics regions.
func PhysicsRegions(regions ...PhysicsRegion) Command {
	c := Command{Opt("-num_phys_regions", Int(int64(len(regions))))}
	for i, r := range regions {
		c = append(c, r.Options(i)...)
	}
	return c
}

// Coord is one bounding-box assignment such as x0 = -39.94.
type Coord struct {
	Axis  string
	Value float64
}

// Box returns the six assignments of an axis-aligned bounding box.
func Box(x0, x1, y0, y1, z0, z1 float64) []Coord {
	return []Coord{
		{"x0", x0}, {"x1", x1},
		{"y0", y0}, {"y1", y1},
		{"z0", z0}, {"z1", z1},
	}
}

// Stimulus is one entry of the stimulus list.
type Stimulus struct {
	Name     string
	Type     int
	Start    int
	Strength int
	Duration int
	Region   int
	// Bounds are emitted in order. An axis listed twice is emitted twice.
	Bounds []Coord
}

// Options renders the stimulus as entry index of the stimulus list.
func (s Stimulus) Options(index int) Command {
	p := fmt.Sprintf("-stimulus[%d]", index)
	c := Command{
		Opt(p+".name", Str(s.Name)),
		Opt(p+".stimtype", Int(int64(s.Type))),
		Opt(p+".start", Int(int64(s.Start))),
		Opt(p+".strength", Int(int64(s.Strength))),
		Opt(p+".duration", Int(int64(s.Duration))),
		Opt(p+".region", Int(int64(s.Region))),
	}
	for _, b := range s.Bounds {
		c = append(c, Opt(p+"."+b.Axis, Float(b.Value)))
	}
	return c
}

// Stimuli renders a counted list of stimuli.
func Stimuli(stims ...Stimulus) Command {
	c := Command{Opt("-num_stim", Int(int64(len(stims))))}
	for i, s := range stims {
		c = append(c, s.Options(i)...)
	}
	return c
}

// ConductivityRegion sets monodomain conductivities for one mesh tag.
type ConductivityRegion struct {
	Name string
	// ID is the mesh tag, passed as a string.
	ID string

	// Extracellular longitudinal, transverse and sheet conductivities.
	GEL, GET, GEN float64
	// Intracellular longitudinal, transverse and sheet conductivities.
	GIL, GIT, GIN float64
	// Mult scales all conductivities.
	Mult float64
}

// Options renders the region as entry index of the conductivity region list.
func (g ConductivityRegion) Options(index int) Command {
	p := fmt.Sprintf("-gregion[%d]", index)
	return Command{
		Opt(p+".name", Str(g.Name)),
		Opt(p+".num_IDs", Int(1)),
		Opt(p+".ID", Str(g.ID)),
		Opt(p+".g_el", Float(g.GEL)),
		Opt(p+".g_et", Float(g.GET)),
		Opt(p+".g_en", Float(g.GEN)),
		Opt(p+".g_il", Float(g.GIL)),
		Opt(p+".g_it", Float(g.GIT)),
		Opt(p+".g_in", Float(g.GIN)),
		Opt(p+".g_mult", Float(g.Mult)),
	}
}

// ConductivityRegions renders a counted list of conductivity regions.
func ConductivityRegions(regions ...ConductivityRegion) Command {
	c := Command{Opt("-num_gregions", Int(int64(len(regions))))}
	for i, g := range regions {
		c = append(c, g.Options(i)...)
	}
	return c
}

// IonicRegion assigns a cellular model to a set of mesh tags.
type IonicRegion struct {
	Model string
	IDs   []int
}

// Options renders the region as entry index of the ionic region list.
func (r IonicRegion) Options(index int) Command {
	p := fmt.Sprintf("-imp_region[%d]", index)
	c := Command{
		Opt(p+".im", Str(r.Model)),
		Opt(p+".num_IDs", Int(int64(len(r.IDs)))),
	}
	for i, id := range r.IDs {
		c = append(c, Opt(fmt.Sprintf("%s.ID[%d]", p, i), Int(int64(id))))
	}
	return c
}

// IonicRegions renders a counted list of ionic model regions.
func IonicRegions(regions ...IonicRegion) Command {
	c := Command{Opt("-num_imp_regions", Int(int64(len(regions))))}
	for i, r := range regions {
		c = append(c, r.Options(i)...)
	}
	return c
}

// LATDetector configures local activation time extraction.
type LATDetector struct {
	ID string
	// All is 0 to detect only the first activation.
	All int
	// Measurand is 0 for transmembrane voltage.
	Measurand int
	// Mode is 0 for maximum slope.
	Mode int
	// Threshold in mV.
	Threshold int
}

// Options renders the detector as entry index of the LAT list.
func (l LATDetector) Options(index int) Command {
	p := fmt.Sprintf("-lats[%d]", index)
	return Command{
		Opt(p+".ID", Str(l.ID)),
		Opt(p+".all", Int(int64(l.All))),
		Opt(p+".measurand", Int(int64(l.Measurand))),
		Opt(p+".mode", Int(int64(l.Mode))),
		Opt(p+".threshold", Int(int64(l.Threshold))),
	}
}

// LATs renders a counted list of LAT detectors.
func LATs(detectors ...LATDetector) Command {
	c := Command{Opt("-num_LATs", Int(int64(len(detectors))))}
	for i, l := range detectors {
		c = append(c, l.Options(i)...)
	}
	return c
}
