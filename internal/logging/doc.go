// Package logging provides the logging interface shared by the valuation
// controller, the prediction client and the gateway. It abstracts the
// underlying implementation so components log consistently while the
// backend (zerolog by default, the standard library on request) stays
// swappable.
package logging
