package track

import "errors"

var (
	errNoPitLane = errors.New("track: pit lane not configured, call WithPitLane before Build")
	errBadBranch = errors.New("track: pit branch segment out of range")
	errBadRejoin = errors.New("track: pit rejoin segment out of range")
)
