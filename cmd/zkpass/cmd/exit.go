package cmd

import (
	"errors"

	"github.com/zkaccess/zkpass/challenge"
	"github.com/zkaccess/zkpass/shared"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitMalformed = 2
	exitRejected  = 3
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, shared.ErrVerificationRejected),
		errors.Is(err, shared.ErrNonceMismatch),
		errors.Is(err, challenge.ErrCommitmentMismatch),
		errors.Is(err, challenge.ErrChallengeNotFound),
		errors.Is(err, challenge.ErrChallengeExpired),
		errors.Is(err, challenge.ErrChallengeConsumed),
		errors.Is(err, challenge.ErrChallengeMismatch):
		return exitRejected
	case errors.Is(err, shared.ErrMalformedEncoding),
		errors.Is(err, shared.ErrMalformedReceipt):
		return exitMalformed
	default:
		return exitFailure
	}
}
