// Package sim owns the set of falling bodies and advances them one host
// frame at a time.
//
// A Simulation is an explicit context object: the host creates it, spawns
// bodies into it and calls Step with the frame interval. Each step applies
// gravity, then drag inside the atmospheric envelope, advances positions
// and tests every body against the primary's surface. Bodies that hit the
// surface produce exactly one ImpactEvent and leave the active set in the
// same step.
package sim
