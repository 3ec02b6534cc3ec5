// Package structure provides the folder-placement conformance rules.
//
//   - ST01: Unclassified File - File under a feature but no recognized layer folder
//   - ST02: Misplaced Unit - Name matches exactly one other layer's pattern while the folder says a different layer
package structure
