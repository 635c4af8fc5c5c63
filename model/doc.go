// Package model implements the active-record layer on top of the query
// builder: typed finders, validated writes, row hydration and relationship
// loading.
//
// A Model is bound to one loaded schema.Entity and one connection handle.
// Entities are plain Go types that expose their field values as a Values
// map and accept an already-cast map back:
//
//	users := model.New(drv, models.UserEntity, models.NewUser)
//	u, err := users.Create(ctx, model.Values{"email": "a@x.com", "password": "pw"})
//	if err != nil {
//	    return err
//	}
//	_, err = users.Update(ctx, u, model.Values{"email": "b@x.com"})
//
// Every operation builds a fresh sql.Builder, so a Model is safe to share
// between goroutines as long as its driver is.
package model
