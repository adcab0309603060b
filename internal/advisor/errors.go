package advisor

import "errors"

var ErrNotPermitted = errors.New("counter-account combination not permitted")
