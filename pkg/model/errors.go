package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy for a generation attempt. Callers classify with errors.Is;
// the session controller is the sole translator to user-facing messages.
var (
	// ErrConfiguration: credential or client setup is missing. Fatal to the
	// attempt, surfaced before any network call.
	ErrConfiguration = goerr.New("generation backend is not configured")

	// ErrAuthorization: the credential cannot access the requested tier.
	// The session controller downgrades to the free tier on this error.
	ErrAuthorization = goerr.New("credential not authorized for requested tier")

	// ErrContentBlocked: the remote call succeeded but returned no image,
	// most commonly due to safety filtering. Terminal for the attempt.
	ErrContentBlocked = goerr.New("generation produced no image")

	// ErrTransport: any other remote or network fault.
	ErrTransport = goerr.New("generation request failed")

	// ErrStorageQuota: history persistence exceeded the storage quota.
	// Handled inside the history store, never surfaced as a generation failure.
	ErrStorageQuota = goerr.New("history storage quota exceeded")

	// ErrReferenceLimit: attempt to stage more reference images than allowed.
	ErrReferenceLimit = goerr.New("reference image limit reached")
)
