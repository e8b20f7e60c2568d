// Package pdfmeta extracts document metadata from PDF files.
//
// Newspaper scans often carry an Info dictionary written by the scanning
// software: a title (sometimes the newspaper name in Persian script), the
// producing library, and creation dates. Extraction is regex-based over
// the leading bytes of the file; it does not parse the PDF object graph
// and tolerates malformed documents by returning whatever fields it could
// recognize. The XMP packet is consulted for fields the Info dictionary
// does not carry.
package pdfmeta
