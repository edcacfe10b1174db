package vrange

import (
	"errors"
	"fmt"

	"github.com/dshills/quire/internal/engine/vnode"
)

// ErrDetached is returned when an operation needs both markers attached to
// a tree and at least one of them is not.
var ErrDetached = errors.New("vrange: range markers are not in a tree")

var errNilReference = fmt.Errorf("%w: nil reference node", vnode.ErrInvalidArgument)
