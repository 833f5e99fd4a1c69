// Package dataset loads the binarized inputs of a rule list search.
//
// A dataset is three text files in the CORELS format. Every line holds a
// braced name followed by one bit per sample, either space separated or as a
// contiguous bit string:
//
//	{age:18-23} 1 0 0 1 0 1
//	{priors:>3} 010011
//
// The rules file has one line per antecedent. The labels file has exactly
// two lines, {label=0} and {label=1}, which must partition the samples. The
// optional minority file has a single line marking the equivalent points
// minority; when it is missing the minority is derived with ComputeMinority.
//
// Files ending in .zst or .lz4 are decompressed transparently. Files are
// read through a blobstore.Store, so they can live on local disk or in
// object storage.
package dataset
