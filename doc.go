// Package arecord holds the error types shared by the query builder, the
// model layer and the migrator.
//
// Sentinel errors work with errors.Is, and the typed errors carry the
// table, field or operator involved:
//
//	if errors.Is(err, arecord.ErrValidationFailed) {
//	    var verr *arecord.ValidationError
//	    errors.As(err, &verr)
//	    fmt.Println(verr.Fields)
//	}
package arecord
