// Package postgres persists the user registry in PostgreSQL behind the
// authgate.UserStore boundary. Role and permission sets are stored as
// jsonb so the table stays driver-portable.
package postgres
