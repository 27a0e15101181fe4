// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"context"
	"errors"
)

var (
	// ErrUnknownUser is returned by CandidateSource.UserProfile for a missing reader.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownItem is returned by CandidateSource.ItemByID for a missing book.
	ErrUnknownItem = errors.New("unknown item")

	// ErrNoCandidates means nothing was left to rank after filtering.
	ErrNoCandidates = errors.New("no candidates")

	// ErrCollaborator wraps a CandidateSource failure that survived retries.
	ErrCollaborator = errors.New("catalog collaborator failure")
)

// Fallback causes, used as log fields and metric labels.
const (
	CauseUnknownUser  = "unknown_user"
	CauseNoCandidates = "no_candidates"
	CauseCollaborator = "collaborator"
	CauseDeadline     = "deadline"
)

// FallbackCauses lists every cause in a stable order.
func FallbackCauses() []string {
	return []string{CauseUnknownUser, CauseNoCandidates, CauseCollaborator, CauseDeadline}
}

// IsNotFound reports whether err means a reader or book does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownUser) || errors.Is(err, ErrUnknownItem)
}

// fallbackCause maps a ranking error to the cause it is reported under.
func fallbackCause(err error) string {
	switch {
	case errors.Is(err, ErrUnknownUser):
		return CauseUnknownUser
	case errors.Is(err, ErrNoCandidates):
		return CauseNoCandidates
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CauseDeadline
	default:
		return CauseCollaborator
	}
}
