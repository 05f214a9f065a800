// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db creates the SQL schema backing the document store.

Two tables hold everything: document is a keyed single-record table for the
prompt slot, the pending poll, and the idea pools; collection_record is an
append-only table for the challenge history.

The schema is portable across the two supported drivers (modernc.org/sqlite
and lib/pq): no server-side defaults, timestamps written by the caller.
*/
package db
