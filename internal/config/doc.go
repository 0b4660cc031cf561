// Package config loads specsync configuration files.
//
// Configuration is written in CUE and unified with an embedded schema that
// carries the defaults and constraints:
//
//	mode:            "deferred"
//	missing_feature: "warn"
//	trim_suffixes:   ["_test"]
//
// Unknown fields are rejected because #Config is closed.
package config
