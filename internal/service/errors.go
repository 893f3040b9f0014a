package service

import "errors"

var (
	// ErrNotFound is returned when a passage or saved analysis does not exist
	ErrNotFound = errors.New("not found")

	// ErrNoStudySession is returned for study actions on a passage the
	// learner has not opened
	ErrNoStudySession = errors.New("no open study session")
)
