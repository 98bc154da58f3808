// Package types defines the record, attachment, dataset, target-index,
// and export-batch types shared by the xmigrate reconciliation core,
// along with the standard errors returned across the core/caller
// boundary.
package types
