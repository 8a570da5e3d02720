package store

import "time"

// Symbol kinds, mirrored from the lang package's closed set. Duplicated here
// (rather than imported) so store has no dependency on the extraction
// package: the database only ever sees strings.
const (
	KindFunction            = "function"
	KindMethod              = "method"
	KindClass               = "class"
	KindInterface           = "interface"
	KindStruct              = "struct"
	KindEnum                = "enum"
	KindTrait               = "trait"
	KindModule              = "module"
	KindConstant            = "constant"
	KindVariable            = "variable"
	KindImplementationBlock = "implementation-block"
	KindTypeAlias           = "type-alias"
	KindDocumentSection     = "document-section"
)

// Reference kinds, mirrored from the lang package's closed set.
const (
	RefCall          = "call"
	RefImport        = "import"
	RefTypeReference = "type-reference"
	RefExtends       = "extends"
	RefImplements    = "implements"
)

// Repository is a single indexed source tree, identified by its absolute
// path.
type Repository struct {
	ID            int64
	Path          string
	LastIndexedAt *time.Time
}

// File belongs to exactly one Repository and is keyed by its path relative
// to the repository root.
type File struct {
	ID           int64
	RepositoryID int64
	RelPath      string
	Language     string
	Hash         string
}

// Symbol is a declaration extracted from a File.
type Symbol struct {
	ID             int64
	FileID         int64
	RepositoryID   int64
	RelPath        string
	Name           string
	Kind           string
	Signature      string
	DocComment     string
	StartLine      int
	EndLine        int
	ParentSymbolID *int64
}

// Reference is a directed out-edge from a Symbol to a name it mentions.
type Reference struct {
	ID             int64
	FromSymbolID   int64
	ToSymbolID     *int64
	ToName         string
	Kind           string
	Line           int
	FileID         int64
	RepositoryID   int64
}
