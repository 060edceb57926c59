package partition

import "time"

// nowFunc is overridden in tests that need deterministic timestamps.
var nowFunc = func() int64 { return time.Now().UnixMilli() }

func now() int64 { return nowFunc() }
