// Package metadata assembles descriptive model metadata and attaches it to
// TFLite model binaries.
//
// The central type is Writer: callers accumulate general info, input and
// output tensor descriptors and side files (label lists, score calibration
// parameters), then Populate pairs the descriptors against the tensor names
// read from the model, assembles the nested metadata tree, serializes it
// through the schema package and injects it together with the side files
// into the model, returning the augmented binary and a JSON rendering.
//
// Descriptors may declare the model tensor name they describe; in that case
// the declared names must match the model's tensor names exactly (as a
// multiset) and the descriptors are reordered to model order. Without
// declared names, descriptors pair positionally and must be added in model
// order.
package metadata
