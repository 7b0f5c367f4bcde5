// Package mongo connects to MongoDB with the official v2 driver.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := mongostore.New(db.Collection("sessions"))
//
// Healthcheck plugs the client into the HTTP server's readiness endpoint.
package mongo
