// Package report renders harvest summaries and archive indexes.
//
// Writers share one interface so the command layer can compose them:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured output for tool integration
//   - MarkdownWriter: tables suitable for commit messages and wikis
//
// IndexWriter is separate from the Writer interface. It does not render a
// single run's summary; it regenerates the bilingual README files that
// index the whole collection from the state database.
package report
