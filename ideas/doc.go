// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ideas reads the curated plot and twist idea pools and collects
user-submitted prompt ideas.

Pools are read-only at runtime and populated out-of-band. A missing or
unreadable pool is a degraded-but-running state, not a fatal one: Pool logs
the condition and returns an empty slice, and the poll engine surfaces the
empty pool to its callers when synthesis is requested.
*/
package ideas
