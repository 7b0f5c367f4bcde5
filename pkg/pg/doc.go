// Package pg connects to PostgreSQL through a pgx pool and applies goose
// migrations from an fs.FS.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, migrations, "migrations", cfg.MigrationsTable, log); err != nil {
//	    return err
//	}
//
// Errors are sentinel values usable with errors.Is. IsNotFoundError and
// IsDuplicateKeyError classify driver errors.
package pg
