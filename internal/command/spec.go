package command

import "strings"

// Spec describes one invocation of an external program. Standard input is
// always the null device; standard output and error are always piped.
type Spec struct {
	// Path is the program to execute. A bare name is resolved on PATH.
	Path string
	// Args are the arguments following the program name.
	Args []string
	// Dir is the working directory; empty means the caller's.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
}

// String renders the invocation for logs and diagnostics.
func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Path
	}
	return s.Path + " " + strings.Join(s.Args, " ")
}
