// Package valuation implements the lifecycle of a single nightly-price
// valuation attempt: collecting input, awaiting a prediction, and revealing
// the result or reporting a failure.
//
// A Controller serializes attempts. Each outbound prediction call is tagged
// with an attempt identifier; when its outcome arrives the controller applies
// it only if that identifier is still current and the controller is still
// Requesting. Outcomes from attempts superseded by Reset, Cancel or a later
// Submit are dropped.
//
// Presentation layers observe the controller through the Observer interface
// and read its state through Phase, Price, Err and Snapshot.
package valuation
