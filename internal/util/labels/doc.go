// Package labels builds the Azure resource tags provseq puts on the
// resources a generated definition creates.
package labels
