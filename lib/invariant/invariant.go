// Package invariant asserts conditions that can only fail through a bug in
// the accounting code, never through caller input.
package invariant

// Violation is the panic value raised by Invariant.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string {
	return "invariant violated: " + v.Msg
}

func Invariant(cond bool, msg string) {
	if !cond {
		panic(&Violation{Msg: msg})
	}
}
