// Package schemadoc models the document pair edited by the form builder: a
// JSON Schema object describing the form data and a UI schema describing how
// each field is presented.
//
// Property order is part of the document. Properties and UI entries are kept
// in insertion order through decoding and encoding, and keys the builder does
// not understand are carried in Extra bags so persisted documents round-trip
// without loss.
//
// Values are treated as immutable by the rest of the module: operations clone
// before they change anything and hand back fresh values.
package schemadoc
