// Package drill tracks a drill bit against the straight axis fixed when its
// tip first touches a drillable surface, records the resulting hole on that
// surface, and matches recorded holes against tolerance-bounded sockets.
//
// A Session moves through Idle, Armed and Tracking. The host arms it while
// the tool's use control is held, delivers tip contacts as they happen, and
// calls Tick once per simulation step after contacts have been delivered.
package drill
