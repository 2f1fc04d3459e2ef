package vm

import (
	"github.com/solaeus/dust/internal/derrors"
	"github.com/solaeus/dust/internal/token"
)

func noPosition() token.Position { return token.Position{} }

// posOf reports fr's current instruction's source position, when the
// prototype carries position information (spec §3: "an optional
// source-position map parallel to the instructions").
func posOf(fr *frame) token.Position {
	if fr.ip-1 >= 0 && fr.ip-1 < len(fr.proto.Positions) {
		return fr.proto.Positions[fr.ip-1]
	}
	return noPosition()
}

func (t *task) runtimeErr(fr *frame, format string, args ...interface{}) error {
	return derrors.New(derrors.RuntimeError, posOf(fr), format, args...)
}

// divisionByZero implements spec §8's property 5: the error position is
// the right operand's span, which the compiler already threads through
// as the DIVIDE/MODULO instruction's own position.
func divisionByZero(pos token.Position) error {
	return derrors.New(derrors.RuntimeError, pos, "division by zero")
}
