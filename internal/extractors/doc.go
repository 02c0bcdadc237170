// Package extractors and its subpackages convert uploaded files into plain
// text for the ingestion pipeline. Each subpackage handles one format; the
// registry dispatches by file extension and falls back to plain text for
// unknown types.
package extractors
