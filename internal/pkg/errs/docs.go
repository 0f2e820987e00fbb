// Package errs holds the typed errors shared by the domain, the use cases and the
// adapters of the food delivery saga.
//
// Every type unwraps to a sentinel (ErrValueIsRequired, ErrValueIsInvalid,
// ErrValueIsOutOfRange, ErrObjectNotFound, ErrVersionIsInvalid), so the edges classify
// failures with errors.Is alone: the HTTP adapter maps them to status codes and the
// event consumers acknowledge them instead of asking for a redelivery.
//
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    return ctx.JSON(http.StatusNotFound, ...)
//	}
package errs
