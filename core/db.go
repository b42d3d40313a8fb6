package core

// DBOrdering is a storage-agnostic ORDER BY clause. Repositories whitelist
// the fields they accept before splicing it into SQL.
type DBOrdering struct {
	Field     string
	Ascending bool
}
