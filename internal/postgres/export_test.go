package postgres

var MigrateFS = migrateFS
