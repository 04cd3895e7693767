package carp

// Option is one key/value pair of a command line, e.g. "-tend 20.0".
type Option struct {
	Key   string
	Value Token
}

// Command is an ordered list of options.
type Command []Option

// Opt is shorthand for an Option.
func Opt(key string, value Token) Option {
	return Option{Key: key, Value: value}
}

// Concat returns a new command made of c followed by each of others.
// None of the operands is modified.
func (c Command) Concat(others ...Command) Command {
	n := len(c)
	for _, o := range others {
		n += len(o)
	}
	out := make(Command, 0, n)
	out = append(out, c...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// Args flattens the command into argv elements.
func (c Command) Args() []string {
	args := make([]string, 0, 2*len(c))
	for _, o := range c {
		args = append(args, o.Key, o.Value.String())
	}
	return args
}

// Lookup returns the value of the last option with key, which is the one
// the simulator applies.
func (c Command) Lookup(key string) (Token, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Key == key {
			return c[i].Value, true
		}
	}
	return Token{}, false
}

// ParFile returns the command that loads a parameter file.
func ParFile(path string) Command {
	return Command{Opt("+F", Str(path))}
}
