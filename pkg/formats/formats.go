// Package formats provides parsers for Ragnarok Online file formats.
//
// Only the RSM model format is needed by the bake pipeline; the parser and
// writer live in rsm.go and rsm_write.go.
package formats
