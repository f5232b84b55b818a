/*
Package operation exports a folder tree from a content repository to the
local filesystem.

	+-------------+
	|  Enumerate  |  IN_TREE query, one row per descendant id
	+------+------+
	       |
	+------+------+
	|   Resolve   |  GetObject per id
	+------+------+
	       |
	+------+------+
	| Materialize |  directory, content file, metadata sidecar
	+-------------+

🎯 Purpose:
- Resolves the starting folder and fails before writing anything if it is missing
- Exports every descendant folder, then every descendant document
- Writes one content file and one _metadata.xml sidecar per document filing
- Maps repository paths onto the destination (relative to the start, or full)

🔄 Flow:
An ExportOperation moves through ResolveRoot, ExportFolders, ExportDocuments
and Done. The first failure stops the run; files already written stay.
Rows arrive in no particular order, so document export creates any parent
directory it needs.

⚡ Errors:
Every fatal failure is an *Error whose Kind is repository.ErrNotFound,
repository.ErrNotFolder, repository.ErrCommunication or ErrFilesystem.
errors.Is works with the kind through any wrapping.

🤝 Interfaces:
- repository.Session: the source repository
- Enumerator: lists descendants, QueryEnumerator by default
- Files: status.Manager, writes and counts the local tree
- log.Logger: console line per object

🔍 Example:

	op, err := operation.NewExportOperation(operation.Options{
		Export:  cfg.Export,
		Session: session,
		Files:   status.New(cfg.Export.Destination, zerolog.Ctx(ctx)),
		Console: log.FromContext(ctx),
	})
	if err != nil {
		return err
	}
	err = operation.NewRunner(uuid.NewString()).Run(ctx, op)
*/
package operation
