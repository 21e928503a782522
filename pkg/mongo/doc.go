// Package mongo connects to MongoDB with the official v2 driver.
//
// It backs tenantstore.Mongo, the document alternative to the Postgres
// tenant directory. Config is read from MONGODB_* variables:
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//	store := tenantstore.NewMongo(db)
//
// Connection failures wrap ErrFailedToConnectToMongo and carry the last
// driver error.
package mongo
