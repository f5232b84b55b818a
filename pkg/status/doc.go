/*
Package status owns the local side of an export: it writes folders,
documents and metadata files under the export root and counts what each
run produced. Nothing is kept per entry, so memory does not grow with the
size of the exported tree.

	            +-------------+
	            |   Manager   |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|   Files   |           | Summary |
	| (on disk) |           | (counts)|
	+-----------+           +---------+

🎯 Purpose:
- Creates directories idempotently
- Streams document content through a fixed-size buffer
- Creates empty placeholders for documents without content
- Writes metadata files atomically (temp file + rename)
- Counts folders, documents, placeholders, metadata files and bytes

🤝 Interfaces:
- FileManager: file system writes used by the export operation
- StatusReporter: entry counting, progress and the run summary
- FileFormatter: emoji messages for the structured log

Paths handed to the Manager are used as given. The base directory only
shortens paths in log messages.

🔍 Example:

	files := status.New(dest, zerolog.Ctx(ctx))

	created, err := files.CreateDir(ctx, dest+"/sub")
	n, err := files.WriteStream(ctx, dest+"/sub/report.pdf", body)
	files.TrackFile(ctx, dest+"/sub/report.pdf", status.FileInfo{Kind: status.KindDocument, Status: status.StatusNew, Size: n})

	summary := files.Summary(ctx)
*/
package status
