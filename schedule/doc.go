// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package schedule provides the weekly trigger driving challenge starts and
ends.

One Trigger is instantiated per transition (start on the configured start
day, end on the configured end day). Missed ticks are not replayed: if the
process is down at the trigger instant, the next correct action waits for
the following week or a manual admin command.
*/
package schedule
