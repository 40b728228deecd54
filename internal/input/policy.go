package input

import "fmt"

// ExitPolicy decides when the input stream as a whole ends.
type ExitPolicy int

const (
	// ExitOnFirst ends the stream as soon as any source reaches end of file.
	ExitOnFirst ExitPolicy = iota
	// ExitOnAll ends the stream once every source reached end of file.
	ExitOnAll
	// ExitNever keeps waiting for data on closed sources.
	ExitNever
)

// ParseExitPolicy accepts "first", "all" and "never".
func ParseExitPolicy(s string) (ExitPolicy, error) {
	switch s {
	case "first":
		return ExitOnFirst, nil
	case "all":
		return ExitOnAll, nil
	case "never":
		return ExitNever, nil
	}
	return 0, fmt.Errorf("unknown exit policy %q (want first, all or never)", s)
}

func (p ExitPolicy) String() string {
	switch p {
	case ExitOnFirst:
		return "first"
	case ExitOnAll:
		return "all"
	case ExitNever:
		return "never"
	}
	return fmt.Sprintf("ExitPolicy(%d)", int(p))
}
