// Package dbmodel maps record types to SQL tables.
//
// A record type is registered once with Define, or with Extend when it builds
// on a base type stored in its own table. Each level of such a chain has a
// table named after the level and joined to its parent by the first primary
// key column. A Repository derives INSERT, UPDATE, DELETE and SELECT
// statements for the chain and fills records from result rows.
//
// Values are written into statement text as quoted literals unless the
// repository is created WithBindVars. Quotes inside values are doubled but
// raw filters passed to LoadWhere are used as given; never build them from
// untrusted input.
//
// Repositories keep no state between calls and take no locks. A Conn used by
// several goroutines must be safe for that use (a *sqlx.DB is, a *sqlx.Tx is
// not).
package dbmodel
