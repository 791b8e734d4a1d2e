package cli

import "time"

// The flag definitions are converted by the builder implementation. A flag
// without a value on the command line takes the Value field, and Required
// makes the command fail when the flag is missing.

// StringFlag is a flag parsed as a string. The environment variables are read
// in order when the flag is missing from the command line.
//
// - implements cli.Flag
type StringFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    string
	EnvVars  []string
}

// Flag implements cli.Flag.
func (StringFlag) Flag() {}

// StringSliceFlag is a flag that can be repeated, or given as a list separated
// by commas.
//
// - implements cli.Flag
type StringSliceFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    []string
}

// Flag implements cli.Flag.
func (StringSliceFlag) Flag() {}

// DurationFlag is a flag parsed as a duration, like "5s".
//
// - implements cli.Flag
type DurationFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    time.Duration
}

// Flag implements cli.Flag.
func (DurationFlag) Flag() {}

// IntFlag is a flag parsed as an integer.
//
// - implements cli.Flag
type IntFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    int
}

// Flag implements cli.Flag.
func (IntFlag) Flag() {}

// BoolFlag is a flag set to true by its presence.
//
// - implements cli.Flag
type BoolFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    bool
}

// Flag implements cli.Flag.
func (BoolFlag) Flag() {}
