package store

import "errors"

var ErrDuplicateScroll = errors.New("scroll already recorded")
