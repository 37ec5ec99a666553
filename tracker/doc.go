// Package tracker records per-module lifecycle timing.
//
// A StateTracker folds the time spent in each lifecycle state into a running
// aggregate (count, total, online mean/variance) so memory stays bounded by
// the number of distinct states rather than the number of transitions.
// States can be suppressed: excluded from the filtered "active time" view
// while their raw aggregates are kept.
//
// TrackedModule layers phase bookkeeping on top: update counts, a bounded
// log of phase transitions, and convenience queries over it. GlobalTracker
// owns one TrackedModule per registered handle and flattens histories that
// grow past a threshold.
package tracker
