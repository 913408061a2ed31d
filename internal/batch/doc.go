// Package batch renders many threat-model files concurrently.
//
// Each file is loaded, validated, and rendered independently. A failure in
// one file is recorded on its Result and does not stop the others; only
// context cancellation aborts the batch.
package batch
