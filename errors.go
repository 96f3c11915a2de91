package menucache

import "errors"

var (
	ErrDisabled = errors.New("menucache: caching disabled")
	ErrCanceled = errors.New("menucache: download canceled")
)
