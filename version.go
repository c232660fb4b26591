// Package strata holds module-wide metadata.
package strata

// Version is the strata release version.
const Version = "0.2.0"
