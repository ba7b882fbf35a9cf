package errors

import "fmt"

var (
	// Collaborator failures (fetch vs upload taxonomy).
	ErrFetch           = fmt.Errorf("fetch failed")
	ErrUpload          = fmt.Errorf("upload failed")
	ErrEmptyUpload     = fmt.Errorf("%w: no file content", ErrUpload)
	ErrMissingMediaURL = fmt.Errorf("%w: response carries no media url", ErrUpload)

	// Attachment pipeline.
	ErrUnsupportedAttachment = fmt.Errorf("attachment type is neither audio nor video")

	// Identity.
	ErrNoToken         = fmt.Errorf("no identity token provided")
	ErrInvalidIdentity = fmt.Errorf("identity claims are incomplete")

	// Moderation wordlists.
	ErrEmptyWords = fmt.Errorf("no words have been found")

	// Supervision.
	ErrWorkerPanic = fmt.Errorf("worker panic")
)
