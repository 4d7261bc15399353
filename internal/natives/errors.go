package natives

import "errors"

// ErrBadArgument is returned when a script passes a Lua value of the wrong
// type, or an unknown kind constant, to an API function.
var ErrBadArgument = errors.New("bad argument")
